package handler

import (
	"net/http"

	"github.com/quickmart/pos-server/internal/httputil"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	httputil.WriteJSON(w, status, data)
}
