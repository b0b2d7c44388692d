package http

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/windfall/recap_client/internal/errors"
	"github.com/windfall/recap_client/pkg/response"
)

// writeError maps an AppError to its status and envelope. Anything else is a 500.
func writeError(w http.ResponseWriter, log zerolog.Logger, err error) {
	var appErr *errors.AppError
	if errors.As(err, &appErr) {
		if appErr.HTTPStatus() >= http.StatusInternalServerError {
			log.Error().Err(err).Msg("Request failed")
		}
		response.Error(w, appErr.HTTPStatus(), &response.ErrorBody{
			Code:    string(appErr.Code),
			Message: appErr.Message,
			Details: appErr.Details,
		})
		return
	}
	log.Error().Err(err).Msg("Internal server error")
	response.InternalError(w, "internal server error")
}
