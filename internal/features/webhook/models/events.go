package models

// Envelope carries the event type discriminator common to all webhook
// payloads.
type Envelope struct {
	Type string `json:"type"`
}

// FollowEvent is the payload of a follow.created delivery.
type FollowEvent struct {
	Type string `json:"type"`
	Data struct {
		User struct {
			FID int64 `json:"fid"`
		} `json:"user"`
		TargetUser struct {
			FID int64 `json:"fid"`
		} `json:"target_user"`
	} `json:"data"`
}

// CastEvent is the payload of a cast.created delivery.
type CastEvent struct {
	Type string `json:"type"`
	Data struct {
		Hash   string `json:"hash"`
		Text   string `json:"text"`
		Author struct {
			FID      int64  `json:"fid"`
			Username string `json:"username"`
		} `json:"author"`
		ParentAuthor struct {
			FID int64 `json:"fid"`
		} `json:"parent_author"`
	} `json:"data"`
}
