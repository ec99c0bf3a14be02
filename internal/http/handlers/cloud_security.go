package handlers

import (
	"net/http"

	"github.com/labstack/echo/v5"
	"github.com/open-sspm/open-grc/internal/cloudsec"
)

const missingOrganizationID = "organizationId is required"

type providersResponse struct {
	Providers []cloudsec.CloudProvider `json:"providers"`
}

type findingsResponse struct {
	Findings []cloudsec.CloudFinding `json:"findings"`
}

func (h *Handlers) HandleCloudProviders(c *echo.Context) error {
	orgID, ok := organizationID(c)
	if !ok {
		return RenderBadRequest(c, missingOrganizationID)
	}

	providers, err := h.CloudSec.GetProviders(c.Request().Context(), orgID)
	if err != nil {
		return h.RenderError(c, err)
	}
	if providers == nil {
		providers = []cloudsec.CloudProvider{}
	}
	return c.JSON(http.StatusOK, providersResponse{Providers: providers})
}

func (h *Handlers) HandleCloudFindings(c *echo.Context) error {
	orgID, ok := organizationID(c)
	if !ok {
		return RenderBadRequest(c, missingOrganizationID)
	}

	findings, err := h.CloudSec.GetFindings(c.Request().Context(), orgID)
	if err != nil {
		return h.RenderError(c, err)
	}
	if findings == nil {
		findings = []cloudsec.CloudFinding{}
	}
	return c.JSON(http.StatusOK, findingsResponse{Findings: findings})
}
