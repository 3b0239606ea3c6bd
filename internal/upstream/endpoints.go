package upstream

import "net/url"

// Upstream paths, relative to UPSTREAM_API_URL.
const (
	PathSendOTP       = "/auth/send-otp"
	PathVerifyOTP     = "/auth/verify-otp"
	PathValidateToken = "/auth/validate-token"

	PathDashboardStats = "/dashboard/stats"

	PathSaveReport        = "/reports/save"
	PathSavedReports      = "/reports/getReports"
	PathViewSavedReport   = "/reports/viewSavedReport/"
	PathUpdateSavedReport = "/reports/updateSavedReport/"
	PathDeleteSavedReport = "/reports/deleteSavedReport/"
)

// UpdatePath and DeletePath follow the CRUD convention shared by every resource:
// PUT base/update/:id and DELETE base/:id.
func UpdatePath(base, id string) string {
	return base + "/update/" + url.PathEscape(id)
}

func DeletePath(base, id string) string {
	return base + "/" + url.PathEscape(id)
}

func ExportPath(base string) string {
	return base + "/export-data"
}
