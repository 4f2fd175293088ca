package tally_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestRegistrationAndLedgerFlow covers the full user journey: request a
// code, read it from the relay, register, top up, spend, and review the
// transaction history.
func TestRegistrationAndLedgerFlow(t *testing.T) {
	stack, cleanup := setupStack(t)
	defer cleanup()

	token := stack.registerUser(t, "alice@example.com", "hunter22")

	// Fresh accounts start at zero.
	var me struct {
		Email   string `json:"email"`
		Balance string `json:"balance"`
	}
	require.Equal(t, http.StatusOK, stack.getJSON(t, "/api/me", token, &me))
	require.Equal(t, "alice@example.com", me.Email)
	require.Equal(t, "0", me.Balance)

	var bal struct {
		Balance string `json:"balance"`
	}
	status := stack.postJSON(t, "/api/recharge", token, map[string]string{"amount": "100"}, &bal)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "100", bal.Balance)

	status = stack.postJSON(t, "/api/consume", token, map[string]string{"amount": "30"}, &bal)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "70", bal.Balance)

	// Overdraft is rejected and the balance is untouched.
	status = stack.postJSON(t, "/api/consume", token, map[string]string{"amount": "1000"}, nil)
	require.Equal(t, http.StatusBadRequest, status)

	var txs []struct {
		Type    string `json:"type"`
		Amount  string `json:"amount"`
		Balance string `json:"balance"`
	}
	require.Equal(t, http.StatusOK, stack.getJSON(t, "/api/transactions", token, &txs))
	require.Len(t, txs, 2)
	require.Equal(t, "consume", txs[0].Type)
	require.Equal(t, "70", txs[0].Balance)
	require.Equal(t, "recharge", txs[1].Type)
	require.Equal(t, "100", txs[1].Balance)
}

// TestEmailCodeLifecycle checks the duplicate-registration guard and that a
// code cannot be redeemed twice.
func TestEmailCodeLifecycle(t *testing.T) {
	stack, cleanup := setupStack(t)
	defer cleanup()

	stack.registerUser(t, "bob@example.com", "hunter22")

	// The address is now registered; another code request conflicts.
	status := stack.postJSON(t, "/api/send-code", "", map[string]string{"email": "bob@example.com"}, nil)
	require.Equal(t, http.StatusConflict, status)
}

// TestLoginWithCaptcha walks the captcha-gated login and checks the
// previous-login echo.
func TestLoginWithCaptcha(t *testing.T) {
	stack, cleanup := setupStack(t)
	defer cleanup()

	stack.registerUser(t, "carol@example.com", "hunter22")

	login := func() (int, string) {
		// The JSON endpoint returns the id; the SVG contains the digits
		// spaced out, so the answer can be recovered from the markup.
		var captcha struct {
			ID  string `json:"id"`
			SVG string `json:"svg"`
		}
		require.Equal(t, http.StatusOK, stack.getJSON(t, "/api/login-captcha", "", &captcha))
		answer := digitsFromSVG(t, captcha.SVG)

		var res struct {
			Token     string `json:"token"`
			LastLogin struct {
				IP   string `json:"ip"`
				Time string `json:"time"`
			} `json:"lastLogin"`
		}
		status := stack.postJSON(t, "/api/login", "", map[string]string{
			"email":     "carol@example.com",
			"password":  "hunter22",
			"captcha":   answer,
			"captchaId": captcha.ID,
		}, &res)
		return status, res.LastLogin.Time
	}

	status, prev := login()
	require.Equal(t, http.StatusOK, status)
	require.Empty(t, prev)

	status, prev = login()
	require.Equal(t, http.StatusOK, status)
	require.NotEmpty(t, prev)
}

// TestAdminConsole covers admin auth, the listings, and the export download.
func TestAdminConsole(t *testing.T) {
	stack, cleanup := setupStack(t)
	defer cleanup()

	userToken := stack.registerUser(t, "dave@example.com", "hunter22")
	status := stack.postJSON(t, "/api/recharge", userToken, map[string]string{"amount": "42.50"}, nil)
	require.Equal(t, http.StatusOK, status)

	// Wrong credentials are rejected.
	status = stack.postJSON(t, "/api/admin/login", "", map[string]string{
		"username": adminUsername,
		"password": "wrong",
	}, nil)
	require.Equal(t, http.StatusUnauthorized, status)

	var adminRes struct {
		Token string `json:"token"`
	}
	status = stack.postJSON(t, "/api/admin/login", "", map[string]string{
		"username": adminUsername,
		"password": adminPassword,
	}, &adminRes)
	require.Equal(t, http.StatusOK, status)
	require.NotEmpty(t, adminRes.Token)

	var users []struct {
		Email   string `json:"email"`
		Balance string `json:"balance"`
	}
	require.Equal(t, http.StatusOK, stack.getJSON(t, "/api/admin/users", adminRes.Token, &users))
	require.Len(t, users, 1)
	require.Equal(t, "dave@example.com", users[0].Email)
	require.Equal(t, "42.5", users[0].Balance)

	var txs []struct {
		Email string `json:"email"`
		Type  string `json:"type"`
	}
	require.Equal(t, http.StatusOK, stack.getJSON(t, "/api/admin/transactions", adminRes.Token, &txs))
	require.Len(t, txs, 1)
	require.Equal(t, "recharge", txs[0].Type)

	// Export needs admin auth and comes back as an xlsx attachment.
	req, err := http.NewRequest(http.MethodGet, stack.baseURL+"/api/admin/export", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+adminRes.Token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		resp.Header.Get("Content-Type"))

	require.Equal(t, http.StatusOK, stack.postJSON(t, "/api/admin/logout", adminRes.Token, nil, nil))
	require.Equal(t, http.StatusUnauthorized, stack.getJSON(t, "/api/admin/users", adminRes.Token, nil))
}

// TestSessionLifecycle checks that logout kills the token.
func TestSessionLifecycle(t *testing.T) {
	stack, cleanup := setupStack(t)
	defer cleanup()

	token := stack.registerUser(t, "erin@example.com", "hunter22")

	require.Equal(t, http.StatusOK, stack.getJSON(t, "/api/me", token, nil))
	require.Equal(t, http.StatusOK, stack.postJSON(t, "/api/logout", token, nil, nil))
	require.Equal(t, http.StatusUnauthorized, stack.getJSON(t, "/api/me", token, nil))
}
