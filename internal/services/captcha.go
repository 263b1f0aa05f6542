package services

import (
	"fmt"

	"github.com/mojocn/base64Captcha"
)

// CaptchaService generates challenge images. The expected answer is not
// held here: callers persist it through the store, keyed by challenge
// id, and it expires with the captcha TTL.
type CaptchaService struct {
	driver base64Captcha.Driver
}

func NewCaptchaService() *CaptchaService {
	return &CaptchaService{
		driver: base64Captcha.NewDriverDigit(80, 240, 5, 0.7, 80),
	}
}

type Challenge struct {
	ID     string
	Image  string // base64-encoded PNG data URI
	Answer string
}

func (s *CaptchaService) Generate() (*Challenge, error) {
	id, content, answer := s.driver.GenerateIdQuestionAnswer()

	item, err := s.driver.DrawCaptcha(content)
	if err != nil {
		return nil, fmt.Errorf("failed to draw captcha: %w", err)
	}

	return &Challenge{
		ID:     id,
		Image:  item.EncodeB64string(),
		Answer: answer,
	}, nil
}
