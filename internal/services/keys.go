package services

import "time"

const (
	KeyUser    = "user:%s"
	KeySession = "session:%s"
	KeyCaptcha = "captcha:%s"

	TTLSession = 24 * time.Hour
	TTLCaptcha = 5 * time.Minute

	// maxUpdateRetries bounds the optimistic write loop on a user record.
	maxUpdateRetries = 5
)
