package entity

// Task is one of the enumerated generation kinds.
type Task string

const (
	TaskMetaAdVariants     Task = "meta_ad_variants"
	TaskTikTokScript       Task = "tiktok_script"
	TaskGoogleAds          Task = "google_ads"
	TaskEmailPromo         Task = "email_promo"
	TaskEmailWelcome       Task = "email_welcome"
	TaskLandingPageSection Task = "landing_page_section"
	TaskCampaignPlan       Task = "campaign_plan"
	TaskAngleBank          Task = "angle_bank"
	TaskCreativeBrief      Task = "creative_brief"
	TaskImagePrompt        Task = "image_prompt"
)

func (t Task) String() string {
	return string(t)
}
