package handler

import (
	"go-catalog-api/common"
	"net/http"
)

// HealthCheck godoc
// @Summary      Show the status of server
// @Description  get the status of server
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /health [get]
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	common.WriteSuccess(w, http.StatusOK, map[string]string{"status": "ok"}, "API is healthy and running")
}
