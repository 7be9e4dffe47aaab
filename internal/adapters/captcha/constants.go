package captcha

import "errors"

const (
	TwoErrZeroBalance       = "ERROR_ZERO_BALANCE"
	TwoErrNoSlots           = "ERROR_NO_SLOT_AVAILABLE"
	TwoErrCaptchaUnsolvable = "ERROR_CAPTCHA_UNSOLVABLE"
)

var (
	ErrZeroBalance = errors.New("captcha solver zero balance")
	ErrUnsolvable  = errors.New("captcha unsolvable")
	ErrNoSlots     = errors.New("captcha solver has no free slots")
)

// XterioChat identifies the hCaptcha guarding the campaign chat.
const (
	XterioChatSiteKey = "2032769e-62c0-4304-87e4-948e81367fba"
	XterioChatPageURL = "https://app.xter.io/activities/ai-campaign"
)
