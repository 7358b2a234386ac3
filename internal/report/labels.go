package report

import "suumo-checker/internal/models"

// Labels written into history columns.
const (
	LabelConfirmed        = "⭕️"
	LabelOtherCompany     = "❌"
	LabelNotFound         = ""
	LabelQueryFailed      = "URL失敗"
	LabelExtractionFailed = "抽出失敗"
	LabelSearchFailed     = "検索失敗"
	LabelVerifyFailed     = "確認失敗"
	LabelSkipped          = "未実行"
)

// Label maps a check status to its sheet label
func Label(status models.CheckStatus) string {
	switch status {
	case models.StatusFoundConfirmed:
		return LabelConfirmed
	case models.StatusFoundOtherCompany:
		return LabelOtherCompany
	case models.StatusNotFound, models.StatusNoPropertyID:
		return LabelNotFound
	case models.StatusQueryFailed:
		return LabelQueryFailed
	case models.StatusExtractionFailed:
		return LabelExtractionFailed
	case models.StatusSearchFailed:
		return LabelSearchFailed
	case models.StatusVerifyFailed:
		return LabelVerifyFailed
	default:
		return LabelSkipped
	}
}
