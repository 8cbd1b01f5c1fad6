package domain

// Record is the closed set of provider record shapes.
// Only types in this package implement it.
type Record interface {
	// Kind returns "<provider>:<object>".
	Kind() string
	// ImageURLs returns the images the record points at, best quality first.
	ImageURLs() []string

	sealed()
}

// RecordFactory returns an empty record of one shape, ready to be decoded into.
type RecordFactory func() Record

// PixivArtwork is a pixiv illustration.
type PixivArtwork struct {
	ArtworkID     string `json:"artwork_id"`
	FullURL       string `json:"artwork_full_url"`
	Title         string `json:"artwork_title"`
	Comment       string `json:"artwork_comment"`
	HQImageURL    string `json:"artwork_hq_image_url"`
	AuthorID      string `json:"artwork_author_id"`
	AuthorFullURL string `json:"artwork_author_full_url"`
}

// PixivUser is a pixiv account.
type PixivUser struct {
	UserID            string  `json:"user_id"`
	FullURL           string  `json:"user_full_url"`
	Name              string  `json:"user_name"`
	HQAvatarURL       string  `json:"user_hq_avatar_url"`
	FollowingCount    int     `json:"user_following_count"`
	TwitterAccountURL *string `json:"user_twitter_account_url"`
}

// TumblrBlog is a Tumblr blog.
type TumblrBlog struct {
	Name        string `json:"blog_name"`
	URL         string `json:"blog_url"`
	Title       string `json:"blog_title"`
	HQAvatarURL string `json:"blog_hq_avatar_url"`
}

// TumblrPost is a single Tumblr post.
type TumblrPost struct {
	PostID   string   `json:"post_id"`
	PostURL  string   `json:"post_url"`
	Images   []string `json:"post_images"`
	BlogName string   `json:"blog_name"`
	BlogURL  string   `json:"blog_url"`
}

// TwitterUser is a Twitter account.
type TwitterUser struct {
	RestID        string `json:"user_rest_id"`
	FullURL       string `json:"user_full_url"`
	Name          string `json:"user_name"`
	ScreenName    string `json:"user_screen_name"`
	FollowerCount int    `json:"user_follower_count"`
	AvatarURL     string `json:"user_avatar_url"`
}

// TwitterTweet is a single tweet.
type TwitterTweet struct {
	RestID           string   `json:"tweet_rest_id"`
	FullURL          string   `json:"tweet_full_url"`
	FavoriteCount    int      `json:"tweet_favorite_count"`
	RetweetCount     int      `json:"tweet_retweet_count"`
	ImageURLList     []string `json:"tweet_image_urls"`
	AuthorRestID     string   `json:"tweet_author_user_rest_id"`
	AuthorScreenName string   `json:"tweet_author_screen_name"`
	AuthorFullURL    string   `json:"tweet_author_full_url"`
}

// DiscordUser is a Discord account.
type DiscordUser struct {
	UserID              string  `json:"user_id"`
	Name                string  `json:"user_name"`
	DisplayName         string  `json:"user_display_name"`
	LegacyDiscriminator string  `json:"user_legacy_discriminator"`
	AvatarURL           *string `json:"user_avatar_url"`
	BannerURL           *string `json:"user_banner_url"`
}

// DiscordMessage is a Discord channel message.
type DiscordMessage struct {
	MessageID        string   `json:"message_id"`
	UserID           string   `json:"message_user_id"`
	FullURL          string   `json:"message_full_url"`
	Content          string   `json:"message_content"`
	ImageAttachments []string `json:"message_image_attachments"`
}

func (*PixivArtwork) Kind() string   { return ProviderPixiv + ":" + ObjectArtwork }
func (*PixivUser) Kind() string      { return ProviderPixiv + ":" + ObjectUser }
func (*TumblrBlog) Kind() string     { return ProviderTumblr + ":" + ObjectBlog }
func (*TumblrPost) Kind() string     { return ProviderTumblr + ":" + ObjectPost }
func (*TwitterUser) Kind() string    { return ProviderTwitter + ":" + ObjectUser }
func (*TwitterTweet) Kind() string   { return ProviderTwitter + ":" + ObjectTweet }
func (*DiscordUser) Kind() string    { return ProviderDiscord + ":" + ObjectUser }
func (*DiscordMessage) Kind() string { return ProviderDiscord + ":" + ObjectMessage }

func (r *PixivArtwork) ImageURLs() []string { return nonEmpty(r.HQImageURL) }
func (r *PixivUser) ImageURLs() []string    { return nonEmpty(r.HQAvatarURL) }
func (r *TumblrBlog) ImageURLs() []string   { return nonEmpty(r.HQAvatarURL) }
func (r *TumblrPost) ImageURLs() []string   { return r.Images }
func (r *TwitterUser) ImageURLs() []string  { return nonEmpty(r.AvatarURL) }
func (r *TwitterTweet) ImageURLs() []string { return r.ImageURLList }
func (r *DiscordMessage) ImageURLs() []string {
	return r.ImageAttachments
}
func (r *DiscordUser) ImageURLs() []string {
	if r.AvatarURL == nil {
		return nil
	}
	return nonEmpty(*r.AvatarURL)
}

func (*PixivArtwork) sealed()   {}
func (*PixivUser) sealed()      {}
func (*TumblrBlog) sealed()     {}
func (*TumblrPost) sealed()     {}
func (*TwitterUser) sealed()    {}
func (*TwitterTweet) sealed()   {}
func (*DiscordUser) sealed()    {}
func (*DiscordMessage) sealed() {}

func nonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	return []string{s}
}
