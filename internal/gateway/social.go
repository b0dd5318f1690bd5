package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"github.com/imagetext/apiserver/internal/logger"
	"github.com/imagetext/apiserver/types"
)

// Social post styles.
const (
	StyleProfessional  = "professional"
	StyleCreative      = "creative"
	StyleHumorous      = "humorous"
	StyleInspirational = "inspirational"
)

// Social platforms.
const (
	PlatformInstagram = "instagram"
	PlatformTwitter   = "twitter"
	PlatformLinkedIn  = "linkedin"
	PlatformTikTok    = "tiktok"
)

const (
	socialTemperature     = float32(0.7)
	socialMaxOutputTokens = 500

	manualBodyLimit = 500
	shortBodyLimit  = 150
	shortBodyMin    = 100

	maxVariations = 4
)

type platformProfile struct {
	maxChars int
	hashtags int
	emoji    bool
}

var platformProfiles = map[string]platformProfile{
	PlatformInstagram: {maxChars: 2200, hashtags: 5, emoji: true},
	PlatformTwitter:   {maxChars: 280, hashtags: 3, emoji: true},
	PlatformLinkedIn:  {maxChars: 3000, hashtags: 3, emoji: false},
	PlatformTikTok:    {maxChars: 150, hashtags: 5, emoji: true},
}

var styleDescriptions = map[string]string{
	StyleProfessional:  "professional and formal, suited to LinkedIn or corporate announcements",
	StyleCreative:      "creative and visual, perfect for Instagram or Pinterest",
	StyleHumorous:      "fun and humorous, ideal for Twitter or memes",
	StyleInspirational: "inspiring and motivational, good for Facebook or personal stories",
}

var styleAliases = map[string]string{
	"professional":  StyleProfessional,
	"profesional":   StyleProfessional,
	"creative":      StyleCreative,
	"creativo":      StyleCreative,
	"humorous":      StyleHumorous,
	"humoristico":   StyleHumorous,
	"humorístico":   StyleHumorous,
	"inspirational": StyleInspirational,
	"inspirador":    StyleInspirational,
}

// ResolveStyle maps a style name to a known style, defaulting to professional.
func ResolveStyle(style string) string {
	return resolve(styleAliases, style, StyleProfessional)
}

// ResolvePlatform returns a known platform, defaulting to instagram.
func ResolvePlatform(platform string) string {
	platform = strings.ToLower(strings.TrimSpace(platform))
	if _, ok := platformProfiles[platform]; ok {
		return platform
	}
	return PlatformInstagram
}

// SocialPost drafts a post for the image. Model failures never surface: a
// malformed reply is mined heuristically, a failed call is retried on the
// fallback models, and when everything fails a static template is returned.
// The only error is an undecodable image.
func (c *Client) SocialPost(ctx context.Context, image []byte, style, platform string) (types.SocialContent, error) {
	png, err := NormalizePNG(image)
	if err != nil {
		return types.SocialContent{}, err
	}

	style = ResolveStyle(style)
	platform = ResolvePlatform(platform)

	req := Request{
		Model:           c.socialModel,
		Prompt:          socialPrompt(style, platform),
		Image:           png,
		Temperature:     ptr(socialTemperature),
		MaxOutputTokens: socialMaxOutputTokens,
	}

	reply, err := c.generate(ctx, req)
	if err == nil {
		if content, ok := parseSocialReply(reply); ok {
			return content, nil
		}
		logger.Log.Warnw("unparseable social reply, extracting manually", "model", req.Model)
		return manualSocialContent(reply, style, platform), nil
	}
	logger.Log.Warnw("social generation failed, trying fallback models", "model", req.Model, "error", err)

	for _, model := range c.fallbackModels {
		req.Model = model
		reply, err := c.generate(ctx, req)
		if err != nil {
			logger.Log.Warnw("fallback model failed", "model", model, "error", err)
			continue
		}
		content, ok := parseSocialReply(reply)
		if !ok {
			continue
		}
		content.Model = model
		return content, nil
	}

	logger.Log.Warnw("all models failed, using static template", "style", style, "platform", platform)
	return fallbackSocialContent(style, platform), nil
}

func socialPrompt(style, platform string) string {
	profile := platformProfiles[platform]
	emoji := "Do not use emojis"
	if profile.emoji {
		emoji = "Include fitting emojis"
	}

	return fmt.Sprintf(`ANALYZE THIS IMAGE AND GENERATE SOCIAL MEDIA CONTENT.

REQUIREMENTS:
1. Style: %s
2. Platform: %s
3. Character limit: %d
4. %d relevant hashtags
5. %s

GENERATE A JSON WITH THIS EXACT FORMAT:
{
    "title": "Catchy title (max 10 words)",
    "short_description": "Brief description of the image",
    "post_body": "Full text for the post",
    "hashtags": ["#hashtag1", "#hashtag2", "#hashtag3"],
    "recommended_emoji": ["😊", "🌟"],
    "publishing_tips": "Short tip for better engagement",
    "optimal_time": "Morning/Afternoon/Evening depending on the content",
    "keywords": ["word1", "word2", "word3"]
}

IMPORTANT: Return only the JSON, with no additional text.`,
		styleDescriptions[style], strings.ToUpper(platform), profile.maxChars, profile.hashtags, emoji)
}

// parseSocialReply strips markdown fences and decodes the JSON record.
// Missing list fields come back empty rather than null.
func parseSocialReply(reply string) (types.SocialContent, bool) {
	cleaned := strings.ReplaceAll(reply, "```json", "")
	cleaned = strings.TrimSpace(strings.ReplaceAll(cleaned, "```", ""))

	var content types.SocialContent
	if err := json.Unmarshal([]byte(cleaned), &content); err != nil {
		return types.SocialContent{}, false
	}
	if content.Hashtags == nil {
		content.Hashtags = []string{}
	}
	if content.RecommendedEmoji == nil {
		content.RecommendedEmoji = []string{}
	}
	if content.Keywords == nil {
		content.Keywords = []string{}
	}
	return content, true
}

func manualSocialContent(reply, style, platform string) types.SocialContent {
	return types.SocialContent{
		Title:            "Image " + capitalize(style),
		ShortDescription: "Content generated for " + platform,
		PostBody:         truncateRunes(reply, manualBodyLimit),
		Hashtags:         []string{"#" + style, "#" + platform, "#AI", "#GeneratedContent"},
		RecommendedEmoji: []string{"✨", "📸", "👁️"},
		PublishingTips:   "Post during peak activity hours for better reach",
		OptimalTime:      "Afternoon",
		Keywords:         []string{style, platform, "content", "AI"},
	}
}

type styleTemplate struct {
	title    string
	body     string
	hashtags []string
}

func styleTemplates(platform string) map[string]styleTemplate {
	return map[string]styleTemplate{
		StyleProfessional: {
			title:    "Professional Image",
			body:     fmt.Sprintf("Sharing relevant visual content for %s. A picture is worth a thousand words in today's digital world.", platform),
			hashtags: []string{"#" + capitalize(platform), "#Professional", "#VisualContent"},
		},
		StyleCreative: {
			title:    "Creative Inspiration! 🎨",
			body:     "Exploring new visual perspectives in this image. Creativity has no limits when we combine art and technology.",
			hashtags: []string{"#Creativity", "#DigitalArt", "#Innovation"},
		},
		StyleHumorous: {
			title:    "Fun Moment 😄",
			body:     "Some images deserve a smile. I hope this one brightens your day as much as it brightened mine!",
			hashtags: []string{"#Humor", "#Fun", "#DigitalSmile"},
		},
		StyleInspirational: {
			title:    "Thought of the Day ✨",
			body:     "Every image tells a story and conveys emotions. This shot reminded me to appreciate the little moments.",
			hashtags: []string{"#Inspiration", "#Motivation", "#Reflection"},
		},
	}
}

func fallbackSocialContent(style, platform string) types.SocialContent {
	templates := styleTemplates(platform)
	tmpl, ok := templates[style]
	if !ok {
		tmpl = templates[StyleProfessional]
	}

	return types.SocialContent{
		Title:            tmpl.title,
		ShortDescription: fmt.Sprintf("Image in %s style optimized for %s", style, platform),
		PostBody:         tmpl.body,
		Hashtags:         tmpl.hashtags,
		RecommendedEmoji: []string{"✨", "📸", "👁️", "🚀"},
		PublishingTips:   fmt.Sprintf("For %s: post between 11:00-13:00 or 19:00-21:00 for maximum engagement", platform),
		OptimalTime:      "Afternoon",
		Keywords:         []string{style, platform, "content", "social media", "AI"},
		Note:             "Automatically generated fallback content",
	}
}

// Variations derives up to four A/B variants of base, in a fixed order.
func Variations(base types.SocialContent, n int) []types.SocialContent {
	if n > maxVariations {
		n = maxVariations
	}
	variations := make([]types.SocialContent, 0, max(n, 0))

	if n >= 1 {
		v := base
		v.Title = "📸 " + base.Title
		v.Variation = "Emoji title"
		variations = append(variations, v)
	}
	if n >= 2 {
		v := base
		v.PostBody = base.PostBody + "\n\nWhat do you think of this image? Leave your opinion in the comments! 👇"
		v.Variation = "Engagement question"
		variations = append(variations, v)
	}
	if n >= 3 {
		v := base
		v.Hashtags = append(append([]string{}, base.Hashtags...), "#AIGeneratedContent", "#DigitalInnovation", "#CreativeTech")
		v.Variation = "Extra hashtags"
		variations = append(variations, v)
	}
	if n >= 4 {
		v := base
		if short := truncateRunes(base.PostBody, shortBodyLimit); len([]rune(short)) > shortBodyMin {
			v.PostBody = short + "..."
		}
		v.Variation = "Ultra-short"
		variations = append(variations, v)
	}
	return variations
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

func capitalize(s string) string {
	runes := []rune(s)
	if len(runes) == 0 {
		return s
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func ptr[T any](v T) *T {
	return &v
}
