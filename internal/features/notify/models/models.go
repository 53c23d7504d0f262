package models

// NotificationDetails is the client-supplied delivery target issued to the
// mini-app by the Farcaster client when notifications were enabled.
type NotificationDetails struct {
	URL   string `json:"url" binding:"required"`
	Token string `json:"token" binding:"required"`
}

// Notification is the content to deliver.
type Notification struct {
	Title               string              `json:"title" binding:"required"`
	Body                string              `json:"body" binding:"required"`
	NotificationDetails NotificationDetails `json:"notificationDetails" binding:"required"`
}

// NotifyRequest is the body of POST /notify.
type NotifyRequest struct {
	FID          int64        `json:"fid"`
	Notification Notification `json:"notification" binding:"required"`
	SecretKey    string       `json:"secretKey" binding:"required"`
}

// FramePayload is the wire format sent to the notification endpoint.
type FramePayload struct {
	NotificationID string   `json:"notificationId"`
	Title          string   `json:"title"`
	Body           string   `json:"body"`
	TargetURL      string   `json:"targetUrl"`
	Tokens         []string `json:"tokens"`
}
