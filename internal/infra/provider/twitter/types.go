package twitter

import "github.com/synzr/torobooru/internal/domain"

// Public page URLs.
const (
	TweetPageURL = "https://x.com/i/status/"
	UserPageURL  = "https://x.com/"
)

// guestTokenResponse is the answer of the guest activation endpoint.
type guestTokenResponse struct {
	GuestToken string `json:"guest_token"`
}

type userLegacy struct {
	Name                 string `json:"name"`
	ScreenName           string `json:"screen_name"`
	FollowersCount       int    `json:"followers_count"`
	ProfileImageURLHTTPS string `json:"profile_image_url_https"`
}

type userResult struct {
	TypeName string     `json:"__typename"`
	RestID   string     `json:"rest_id"`
	Legacy   userLegacy `json:"legacy"`
}

// userByScreenNameResponse is the answer of the UserByScreenName query.
type userByScreenNameResponse struct {
	Data struct {
		User struct {
			Result userResult `json:"result"`
		} `json:"user"`
	} `json:"data"`
}

type mediaEntity struct {
	Type          string `json:"type"`
	MediaURLHTTPS string `json:"media_url_https"`
}

type extendedEntities struct {
	Media []mediaEntity `json:"media"`
}

type tweetLegacy struct {
	IDStr            string           `json:"id_str"`
	FavoriteCount    int              `json:"favorite_count"`
	RetweetCount     int              `json:"retweet_count"`
	ExtendedEntities extendedEntities `json:"extended_entities"`

	RetweetedStatusResult *struct {
		Result struct {
			Legacy struct {
				ExtendedEntities extendedEntities `json:"extended_entities"`
			} `json:"legacy"`
		} `json:"result"`
	} `json:"retweeted_status_result"`
}

// tweetResultResponse is the answer of the TweetResultByRestId query.
type tweetResultResponse struct {
	Data struct {
		TweetResult struct {
			Result struct {
				TypeName string `json:"__typename"`
				Core     struct {
					UserResults struct {
						Result userResult `json:"result"`
					} `json:"user_results"`
				} `json:"core"`
				Legacy tweetLegacy `json:"legacy"`
			} `json:"result"`
		} `json:"tweetResult"`
	} `json:"data"`
}

// ToDomain converts the user result to domain.TwitterUser.
func (u *userResult) ToDomain() *domain.TwitterUser {
	return &domain.TwitterUser{
		RestID:        u.RestID,
		FullURL:       UserPageURL + u.Legacy.ScreenName + "/",
		Name:          u.Legacy.Name,
		ScreenName:    u.Legacy.ScreenName,
		FollowerCount: u.Legacy.FollowersCount,
		AvatarURL:     u.Legacy.ProfileImageURLHTTPS,
	}
}

// ToDomain converts the tweet result to domain.TwitterTweet.
// Own media wins over the media of a retweeted status. Only photos are kept.
func (r *tweetResultResponse) ToDomain() *domain.TwitterTweet {
	result := &r.Data.TweetResult.Result
	legacy := &result.Legacy
	author := &result.Core.UserResults.Result

	media := legacy.ExtendedEntities.Media
	if len(media) == 0 && legacy.RetweetedStatusResult != nil {
		media = legacy.RetweetedStatusResult.Result.Legacy.ExtendedEntities.Media
	}

	images := make([]string, 0, len(media))
	for _, m := range media {
		if m.Type != "photo" {
			continue
		}
		images = append(images, m.MediaURLHTTPS)
	}

	return &domain.TwitterTweet{
		RestID:           legacy.IDStr,
		FullURL:          TweetPageURL + legacy.IDStr,
		FavoriteCount:    legacy.FavoriteCount,
		RetweetCount:     legacy.RetweetCount,
		ImageURLList:     images,
		AuthorRestID:     author.RestID,
		AuthorScreenName: author.Legacy.ScreenName,
		AuthorFullURL:    UserPageURL + author.Legacy.ScreenName + "/",
	}
}
