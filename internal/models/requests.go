package models

type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	CaptchaID string `json:"captcha_id" binding:"required"`
	Captcha   string `json:"captcha" binding:"required"`
}

type LoginRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required"`
	CaptchaID string `json:"captcha_id" binding:"required"`
	Captcha   string `json:"captcha" binding:"required"`
}

type BetRequest struct {
	Bet float64 `json:"bet" binding:"required"`
}

type WinRequest struct {
	Win float64 `json:"win"`
}

// SlotLine is one payline result as reported by the game client. Pay is
// the payout multiplier for that line, zero for a losing line.
type SlotLine struct {
	Pay float64 `json:"pay"`
}

type SettleRequest struct {
	Bet   float64    `json:"bet" binding:"required"`
	Lines []SlotLine `json:"lines" binding:"required"`
}

type CreateChargeRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
}

type WithdrawRequest struct {
	WalletAddress string  `json:"wallet_address" binding:"required"`
	Amount        float64 `json:"amount" binding:"required"`
	Currency      string  `json:"currency" binding:"required"`
}

// WebhookEnvelope mirrors the Coinbase Commerce notification payload.
// Only the fields the reconciler consumes are mapped.
type WebhookEnvelope struct {
	Event struct {
		Type string `json:"type"`
		Data struct {
			ID      string `json:"id"`
			Code    string `json:"code"`
			Pricing struct {
				Local struct {
					Amount   string `json:"amount"`
					Currency string `json:"currency"`
				} `json:"local"`
			} `json:"pricing"`
			Metadata struct {
				Email string `json:"email"`
			} `json:"metadata"`
			Timeline []struct {
				Status string `json:"status"`
				Time   string `json:"time"`
			} `json:"timeline"`
			CreatedAt string `json:"created_at"`
		} `json:"data"`
	} `json:"event"`
}

// LatestStatus returns the last timeline entry's status, matching how the
// gateway reports charge progression.
func (e *WebhookEnvelope) LatestStatus() string {
	tl := e.Event.Data.Timeline
	if len(tl) == 0 {
		return ""
	}
	return tl[len(tl)-1].Status
}
