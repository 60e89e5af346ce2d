package telegram

import (
	"fmt"
	"html"
	"strings"
	"time"

	"rational-assistant/internal/analyzer"
	"rational-assistant/internal/models"
)

// Callback data values.
const (
	CallbackToggleNotifications = "toggle_notifications"
	CallbackStats               = "stats"
	CallbackSettings            = "settings"
	callbackApprovePrefix       = "approve_"
	callbackRejectPrefix        = "reject_"
)

const needLinkText = "❌ Link your account first: get a code in the app, then send /link CODE"

func startText() string {
	return "👋 Hi! I am the purchase cooling-off assistant.\n\n" +
		"Link your account to get started: open the app, get a link code\n" +
		"and send /link CODE\n\n" +
		"Commands:\n" +
		"/link CODE - link your account\n" +
		"/unlink - unlink your account\n" +
		"/pending - show pending purchases\n" +
		"/stats - show statistics\n" +
		"/settings - notification settings"
}

func linkedText(nickname string) string {
	return fmt.Sprintf("✅ Account '%s' linked!\n\n", html.EscapeString(nickname)) +
		"You will be notified about:\n" +
		"• The end of cooling-off periods\n" +
		"• Impulsive purchases\n" +
		"• Weekly results\n\n" +
		"Manage: /settings"
}

const invalidLinkCodeText = "❌ This code is invalid or expired.\nGet a new one in the app."

func pendingText(purchases []models.Purchase, now time.Time) string {
	if len(purchases) == 0 {
		return "📋 You have no pending purchases.\nAll decisions made! 🎉"
	}

	var b strings.Builder
	b.WriteString("📋 <b>Pending purchases:</b>\n\n")
	for _, p := range purchases {
		left := p.DaysLeft(now)
		marker, when := "⏳", fmt.Sprintf("%s left", analyzer.Days(left))
		if left <= 0 {
			marker, when = "✅", "Ready to decide!"
		}
		fmt.Fprintf(&b, "%s <b>%s</b>\n💰 %s | 📦 %s\n📅 %s\n",
			marker, html.EscapeString(p.Name), analyzer.FormatMoney(p.Price), html.EscapeString(p.Category), when)
		if p.IsBlacklisted {
			b.WriteString("🚫 Blacklisted\n")
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func pendingKeyboard() *InlineKeyboardMarkup {
	return Keyboard(Button("📊 Statistics", CallbackStats), Button("⚙️ Settings", CallbackSettings))
}

func statsText(u *models.User, s *models.Statistics) string {
	var b strings.Builder
	b.WriteString("📊 <b>Your statistics</b>\n\n")
	fmt.Fprintf(&b, "👤 User: %s\n", html.EscapeString(u.Nickname))
	fmt.Fprintf(&b, "💰 Salary: %s\n", analyzer.FormatMoney(u.Salary))
	fmt.Fprintf(&b, "🏦 Savings: %s\n\n", analyzer.FormatMoney(u.CurrentSavings))
	b.WriteString("📈 <b>Purchases:</b>\n")
	fmt.Fprintf(&b, "Total: %d\n⏳ Pending: %d\n✅ Approved: %d\n❌ Rejected: %d\n\n",
		s.Total, s.Pending, s.Approved, s.Rejected)
	fmt.Fprintf(&b, "💸 Spent: %s\n💚 Saved: %s", analyzer.FormatMoney(s.TotalSpent), analyzer.FormatMoney(s.TotalSaved))
	if s.TotalSaved.IsPositive() {
		fmt.Fprintf(&b, "\n\n🎯 Efficiency: %s%%", s.Efficiency().StringFixed(1))
	}
	return b.String()
}

func settingsText(enabled bool) string {
	status := "🔴 Off"
	if enabled {
		status = "🟢 On"
	}
	return "⚙️ <b>Notification settings</b>\n\n" +
		fmt.Sprintf("Status: %s\n\n", status) +
		"You are notified about:\n" +
		"• ⏰ The end of cooling-off periods\n" +
		"• 🎯 New risky purchases\n" +
		"• 📊 Weekly statistics"
}

func settingsKeyboard(enabled bool) *InlineKeyboardMarkup {
	label := "✅ Turn on"
	if enabled {
		label = "❌ Turn off"
	}
	return Keyboard(Button(label, CallbackToggleNotifications))
}

func toggledText(enabled bool) string {
	if enabled {
		return "Notifications on ✅"
	}
	return "Notifications off ❌"
}

func coolingEndedText(p *models.Purchase) string {
	return "⏰ <b>The cooling-off period is over!</b>\n\n" +
		fmt.Sprintf("🛍 <b>%s</b>\n💰 %s\n📦 %s\n\n", html.EscapeString(p.Name), analyzer.FormatMoney(p.Price), html.EscapeString(p.Category)) +
		"Do you still want to buy it?"
}

func decisionKeyboard(purchaseID int64) *InlineKeyboardMarkup {
	return Keyboard(
		Button("✅ Buy", fmt.Sprintf("%s%d", callbackApprovePrefix, purchaseID)),
		Button("❌ Skip", fmt.Sprintf("%s%d", callbackRejectPrefix, purchaseID)),
	)
}

func decisionText(p *models.Purchase) string {
	name := html.EscapeString(p.Name)
	if p.Status == models.StatusApproved {
		return fmt.Sprintf("✅ <b>%s</b> approved. Enjoy the purchase!", name)
	}
	return fmt.Sprintf("💚 <b>%s</b> rejected. %s saved!", name, analyzer.FormatMoney(p.Price))
}

func highImpulseText(p *models.Purchase, a analyzer.Analysis) string {
	return fmt.Sprintf("%s <b>New purchase added</b>\n\n", a.RiskLevel.Marker()) +
		fmt.Sprintf("🛍 <b>%s</b>\n💰 %s\n", html.EscapeString(p.Name), analyzer.FormatMoney(p.Price)) +
		fmt.Sprintf("📊 Impulse risk: %d%%\n\n", a.ImpulseScore) +
		fmt.Sprintf("💡 %s\n", html.EscapeString(a.Recommendation)) +
		fmt.Sprintf("⏰ Cooling-off period: %s", analyzer.Days(a.CoolingDays))
}

func weeklyStatsText(nickname string, s *models.Statistics) string {
	text := "📊 <b>Weekly results</b>\n\n" +
		fmt.Sprintf("👤 %s\n", html.EscapeString(nickname)) +
		fmt.Sprintf("🛍 Purchases added: %d\n", s.Total) +
		fmt.Sprintf("💸 Spent: %s\n", analyzer.FormatMoney(s.TotalSpent)) +
		fmt.Sprintf("💚 Saved: %s\n\n", analyzer.FormatMoney(s.TotalSaved))

	switch {
	case s.TotalSaved.GreaterThan(s.TotalSpent):
		text += "🏆 Great job! You saved more than you spent!"
	case s.TotalSaved.IsPositive():
		text += "✅ Good result! Keep it up!"
	default:
		text += "💡 You did not skip a single purchase this week. Try to be more careful!"
	}
	return text
}
