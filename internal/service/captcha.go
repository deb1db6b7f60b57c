package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/foyerhq/foyer-server/internal/config"
)

// CaptchaVerifier checks whether a client-supplied CAPTCHA token is valid.
type CaptchaVerifier interface {
	Verify(ctx context.Context, token, remoteIP string) (bool, error)
}

// httpCaptchaVerifier posts tokens to a Turnstile-compatible siteverify
// endpoint. Unlike the rate limiter, CAPTCHA fails closed: an unreachable
// verification service blocks the request, since this is the abuse gate on
// an unauthenticated endpoint.
type httpCaptchaVerifier struct {
	secret    string
	verifyURL string
	client    *http.Client
}

// NewCaptchaVerifier creates an HTTP-backed CAPTCHA verifier
func NewCaptchaVerifier(secret, verifyURL string) CaptchaVerifier {
	return &httpCaptchaVerifier{
		secret:    secret,
		verifyURL: verifyURL,
		client:    &http.Client{Timeout: config.CaptchaVerifyTimeout},
	}
}

type captchaVerifyResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

func (v *httpCaptchaVerifier) Verify(ctx context.Context, token, remoteIP string) (bool, error) {
	if v.secret == "" {
		log.Warn().Msg("captcha secret not configured, rejecting token")
		return false, nil
	}

	form := url.Values{}
	form.Set("secret", v.secret)
	form.Set("response", token)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return false, fmt.Errorf("build captcha request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("captcha verify request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("captcha verify status %d", resp.StatusCode)
	}

	var result captchaVerifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false, fmt.Errorf("decode captcha response: %w", err)
	}

	if !result.Success {
		log.Warn().Strs("errorCodes", result.ErrorCodes).Msg("captcha verification rejected")
	}

	return result.Success, nil
}
