package telegram

// UI texts in English
const (
	startTextFmt = "Hey %s! Welcome to Cowin Assist Bot\n\n" +
		"This bot will help you check available slots and also set an alert when a slot becomes available.\n\n" +
		helpText
	helpText = "How to use:\n" +
		"• /pincode 560001 sets your pincode (or just send the 6 digits)\n" +
		"• /age 18, /age 45 or /age any sets the age group\n" +
		"• /check looks up open slots right now\n" +
		"• /alert enables alerts, /pause disables them, /resume turns them back on"

	askAgeText     = "Please select an age preference: /age 18, /age 45 or /age any"
	askPincodeText = "Please enter your pincode to proceed, e.g. /pincode 560001"
	nextStepsText  = "Use /check to look up slots now or /alert to get notified."

	alertsEnabledText  = "Alerts are enabled. Click on /pause to pause the alerts"
	alertsDisabledText = "Alerts are disabled. Click on /resume to resume the alerts"

	providerBusyText   = "CoWIN is not responding right now, please try again in a few minutes."
	unknownCommandText = "Sorry, I did not get that. Send /help to see what I can do."

	statsFmt = "Users: %d\nAlerts enabled: %d\nPincodes watched: %d\nAlerts sent: %d"
)
