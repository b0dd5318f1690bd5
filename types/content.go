package types

// SocialContent is the structured record produced for a social media post.
type SocialContent struct {
	Title            string   `json:"title"`
	ShortDescription string   `json:"short_description"`
	PostBody         string   `json:"post_body"`
	Hashtags         []string `json:"hashtags"`
	RecommendedEmoji []string `json:"recommended_emoji"`
	PublishingTips   string   `json:"publishing_tips"`
	OptimalTime      string   `json:"optimal_time"`
	Keywords         []string `json:"keywords"`

	// Model is the model that produced the record, when it was not the primary one.
	Model string `json:"model,omitempty"`

	// Note explains how the record was produced when it did not come from the model.
	Note string `json:"note,omitempty"`

	// Variation labels A/B variants derived from a base record.
	Variation string `json:"variation,omitempty"`
}

// GeneratedText is the result of a text-producing content action.
type GeneratedText struct {
	ImageID int    `json:"image_id,omitempty"`
	Text    string `json:"text"`
}

// GeneratedSocial is the result of a social post action, with optional A/B variants.
type GeneratedSocial struct {
	ImageID    int             `json:"image_id"`
	Content    SocialContent   `json:"content"`
	Variations []SocialContent `json:"variations,omitempty"`
}
