package gateway

import (
	"fmt"
	"strings"
)

// Description levels.
const (
	LevelBrief    = "brief"
	LevelNormal   = "normal"
	LevelDetailed = "detailed"
)

// Analysis kinds.
const (
	AnalysisGeneral   = "general"
	AnalysisTechnical = "technical"
	AnalysisArtistic  = "artistic"
	AnalysisEmotional = "emotional"
)

const extractPrompt = "Extract ALL the text that appears in this image. " +
	"Do not summarize it. Do not interpret it. " +
	"Return only the text."

var describePrompts = map[string]string{
	LevelBrief: "Describe this image briefly in 2-3 sentences. " +
		"Mention only the most important elements.",
	LevelNormal: "Describe this image clearly and completely. " +
		"Include: main setting, visible elements, colors, " +
		"relevant people or objects, and the general context.",
	LevelDetailed: "Describe this image in great detail. " +
		"Include: composition, colors, lighting, " +
		"textures, specific objects, people (description if any), " +
		"expressions, surroundings, atmosphere, and possible meanings or context.",
}

var analysisPrompts = map[string]string{
	AnalysisGeneral: "Analyze this image completely. Include: " +
		"1. General description of the scene\n" +
		"2. Main and secondary elements\n" +
		"3. Colors and composition\n" +
		"4. Possible context or meaning\n" +
		"5. Technical quality of the image",
	AnalysisTechnical: "Make a technical analysis of this image. Include: " +
		"1. Composition and rule of thirds\n" +
		"2. Lighting and shadows\n" +
		"3. Focus and depth of field\n" +
		"4. Colors and white balance\n" +
		"5. Likely camera settings\n" +
		"6. Overall technical quality",
	AnalysisArtistic: "Make an artistic analysis of this image. Include: " +
		"1. Artistic style\n" +
		"2. Use of color and contrast\n" +
		"3. Composition and symmetry\n" +
		"4. Emotions conveyed\n" +
		"5. Possible artistic influences\n" +
		"6. Overall aesthetic value",
	AnalysisEmotional: "Analyze the emotional content of this image. Include: " +
		"1. Main emotions conveyed\n" +
		"2. Elements that create those emotions\n" +
		"3. Colors and their emotional impact\n" +
		"4. Composition and its effect on the viewer\n" +
		"5. Overall emotional message\n" +
		"6. How it might affect different people",
}

var levelAliases = map[string]string{
	"brief":     LevelBrief,
	"breve":     LevelBrief,
	"normal":    LevelNormal,
	"detailed":  LevelDetailed,
	"detallado": LevelDetailed,
}

var analysisAliases = map[string]string{
	"general":   AnalysisGeneral,
	"technical": AnalysisTechnical,
	"tecnico":   AnalysisTechnical,
	"técnico":   AnalysisTechnical,
	"artistic":  AnalysisArtistic,
	"artistico": AnalysisArtistic,
	"artístico": AnalysisArtistic,
	"emotional": AnalysisEmotional,
	"emocional": AnalysisEmotional,
}

// ResolveLevel maps a level name to a known level, defaulting to normal.
func ResolveLevel(level string) string {
	return resolve(levelAliases, level, LevelNormal)
}

// ResolveAnalysis maps an analysis name to a known kind, defaulting to general.
func ResolveAnalysis(kind string) string {
	return resolve(analysisAliases, kind, AnalysisGeneral)
}

func resolve(aliases map[string]string, name, fallback string) string {
	if v, ok := aliases[strings.ToLower(strings.TrimSpace(name))]; ok {
		return v
	}
	return fallback
}

var languageCodes = map[string]string{
	"español":    "es",
	"spanish":    "es",
	"catalán":    "ca",
	"catalan":    "ca",
	"inglés":     "en",
	"english":    "en",
	"francés":    "fr",
	"french":     "fr",
	"portugués":  "pt",
	"portuguese": "pt",
	"italiano":   "it",
	"italian":    "it",
	"alemán":     "de",
	"german":     "de",
	"chino":      "zh",
	"chinese":    "zh",
	"japonés":    "ja",
	"japanese":   "ja",
}

// LanguageCode returns the ISO 639-1 code for a supported language name or code.
func LanguageCode(language string) (string, bool) {
	language = strings.ToLower(strings.TrimSpace(language))
	if code, ok := languageCodes[language]; ok {
		return code, true
	}
	for _, code := range languageCodes {
		if code == language {
			return code, true
		}
	}
	return "", false
}

func translatePrompt(code, text string) string {
	return fmt.Sprintf("Translate the following text into the language with code '%s'. "+
		"Do not add explanations. Return only the translation.\n\n%s", code, text)
}
