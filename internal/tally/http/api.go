package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/morninghq/tally/internal/tally/domain"
	"github.com/shopspring/decimal"
)

// Request bodies.

type sendCodeRequest struct {
	Email string `json:"email"`
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Code     string `json:"code"`
}

type loginRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	Captcha   string `json:"captcha"`
	CaptchaID string `json:"captchaId"`
}

type amountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type adminLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Response bodies. Balances marshal as quoted decimal strings.

type successResponse struct {
	Success bool `json:"success"`
}

type authResponse struct {
	Token   string          `json:"token"`
	Email   string          `json:"email"`
	Balance decimal.Decimal `json:"balance"`
}

type lastLogin struct {
	IP   string `json:"ip"`
	Time string `json:"time"`
}

type loginResponse struct {
	authResponse
	LastLogin lastLogin `json:"lastLogin"`
}

type captchaResponse struct {
	ID  string `json:"id"`
	SVG string `json:"svg"`
}

type meResponse struct {
	Email   string          `json:"email"`
	Balance decimal.Decimal `json:"balance"`
}

type balanceResponse struct {
	Balance decimal.Decimal `json:"balance"`
}

type transactionResponse struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Amount    decimal.Decimal `json:"amount"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
}

type adminLoginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

type adminUserResponse struct {
	ID        string          `json:"id"`
	Email     string          `json:"email"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
}

type adminTransactionResponse struct {
	ID        string          `json:"id"`
	Email     string          `json:"email"`
	Type      string          `json:"type"`
	Amount    decimal.Decimal `json:"amount"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
}

func newTransactionResponse(t domain.Transaction) transactionResponse {
	return transactionResponse{
		ID:        t.ID,
		Type:      string(t.Type),
		Amount:    t.Amount,
		Balance:   t.Balance,
		CreatedAt: t.CreatedAt,
	}
}

const maxBodyBytes = 1 << 20 // 1 MiB

// decodeJSON reads a JSON request body into dst.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	return dec.Decode(dst)
}
