package handler

import (
	"net/http"

	"voicesvc/internal/pkg/auth/matrix"
	"voicesvc/internal/pkg/errs"
	"voicesvc/internal/pkg/logx"
	"voicesvc/internal/pkg/req"
	"voicesvc/internal/pkg/resp"
)

type IssueTokenInput struct {
	// ChannelID names the LiveKit room the grant is scoped to.
	ChannelID string `json:"channelId"`
	// DisplayName is shown to other participants. Defaults to the Matrix user id.
	DisplayName string `json:"displayName,omitempty"`
}

type IssueTokenResponse struct {
	Token      string `json:"token"`
	LiveKitURL string `json:"livekitUrl"`
}

// HandleIssueToken mints a LiveKit grant for the verified caller. It must be
// mounted behind matrix.RequireIdentity.
func HandleIssueToken(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := matrix.PrincipalFromContext(r.Context())
		if !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidIdentityToken))
			return
		}

		var input IssueTokenInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		// Room names are opaque: only an absent or empty channelId is rejected.
		channelID := input.ChannelID
		if channelID == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrChannelIDRequired))
			return
		}

		grant, err := deps.Minter.Mint(channelID, principal.String(), input.DisplayName)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown, err))
			return
		}

		deps.Metrics.RecordGrant(r.Context())

		logx.Info("Media grant issued",
			"user_id", principal.String(),
			"room", channelID,
			"grant_id", grant.ID,
			"expires_at", grant.ExpiresAt,
		)

		resp.RespondSuccess(w, r, IssueTokenResponse{
			Token:      grant.Token,
			LiveKitURL: deps.Config.LiveKitURL,
		})
	}
}
