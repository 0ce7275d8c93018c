/**
 * @description
 * The /twilio/token endpoint mints the access token the browser softphone
 * needs to place calls through the TwiML application. The token is an
 * HS256-signed JWT in Twilio's first-person-auth format, carrying a voice
 * grant for the configured application SID.
 *
 * @dependencies
 * - github.com/golang-jwt/jwt/v5: token signing.
 */

package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIdentity = "voice_user"

// TwilioTokenHandler returns a short-lived access token for the voice SDK.
func (h *Handlers) TwilioTokenHandler(w http.ResponseWriter, r *http.Request) {
	cfg := h.cfg
	if cfg.TwilioAccountSID == "" || cfg.TwilioAPIKey == "" || cfg.TwilioAPISecret == "" || cfg.TwimlAppSID == "" {
		h.writeError(w, http.StatusInternalServerError, "Missing Twilio configuration.")
		return
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"jti": fmt.Sprintf("%s-%d", cfg.TwilioAPIKey, now.Unix()),
		"iss": cfg.TwilioAPIKey,
		"sub": cfg.TwilioAccountSID,
		"iat": now.Unix(),
		"exp": now.Add(time.Hour).Unix(),
		"grants": map[string]interface{}{
			"identity": tokenIdentity,
			"voice": map[string]interface{}{
				"outgoing": map[string]interface{}{
					"application_sid": cfg.TwimlAppSID,
				},
			},
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token.Header["cty"] = "twilio-fpa;v=1"

	signed, err := token.SignedString([]byte(cfg.TwilioAPISecret))
	if err != nil {
		h.logger.Error("failed to sign access token", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to sign access token")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"token": signed})
}
