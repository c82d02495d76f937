package session

import "github.com/officeflow/attendance-bot/internal/domain"

// Reply keyboard labels. Incoming text equal to a label acts as the button.
const (
	DepartureButton = "🚪 Report leaving the workplace"
	ReportButton    = "📊 Get report"
)

const (
	msgAlreadyRegistered  = "✅ You are already registered."
	msgAskFullName        = "👋 Hello! Please enter your full name (for example: Ivanov Sergey Petrovich):"
	msgFullNameTooShort   = "⚠️ Please enter your full name (surname, given name and patronymic)."
	msgChooseDepartment   = "✅ Now choose your department:"
	msgRegistered         = "🎉 Registration complete."
	msgRegisteredAdmin    = "🎉 Registration complete. You were added as an administrator and can download the statistics file."
	msgNotRegistered      = "⚠️ You need to register first. Send /start."
	msgAskReason          = "✏️ Write where you are going and when you plan to return (for example: \"to the registry office, back by 14:30\"):"
	msgReasonEmpty        = "⚠️ Please describe where you are going."
	msgOutsideHours       = "⏰ Outside working hours. The bot is ending this conversation."
	msgDepartureSaved     = "✅ The information was saved and passed to the management.\nYou do not need to check out at the end of the working day."
	msgNotSaved           = "❌ Not saved. Please try again."
	msgPermissionDenied   = "⛔ You do not have access to this command."
	msgChoosePeriod       = "Choose the report period:"
	msgReportUnavailable  = "❌ The report could not be generated. Please try again later."
	msgResetDone          = "🔁 Your registration was reset. To register again, send /start."
	msgUseButtons         = "⚠️ Please use the buttons provided by the bot. Free-form input is not supported."
	msgServiceUnavailable = "❌ The service is temporarily unavailable. Please try again."
)

var periodLabels = map[domain.ReportPeriod]string{
	domain.PeriodDay:   "📅 Day",
	domain.PeriodWeek:  "🗓 Week",
	domain.PeriodMonth: "📆 Month",
	domain.PeriodYear:  "📊 Year",
}

// MainMenu is the reply keyboard for a registered user.
func MainMenu(isAdmin bool) *domain.Keyboard {
	rows := [][]string{{DepartureButton}}
	if isAdmin {
		rows = append(rows, []string{ReportButton})
	}
	return domain.ReplyKeyboard(rows...)
}

// DepartmentMenu offers one department per row.
func DepartmentMenu(departments domain.Departments) *domain.Keyboard {
	rows := make([][]string, 0, len(departments))
	for _, d := range departments {
		rows = append(rows, []string{d})
	}
	return domain.ReplyKeyboard(rows...)
}

// PeriodMenu is the inline period picker. Callback data is the period tag.
func PeriodMenu() *domain.Keyboard {
	buttons := make([]domain.Button, 0, len(domain.ReportPeriods))
	for _, p := range domain.ReportPeriods {
		buttons = append(buttons, domain.Button{Label: periodLabels[p], Data: string(p)})
	}
	return domain.InlineKeyboard(buttons...)
}
