package telegram

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ykvlv/cowin-alert-bot/internal/cowin"
	"github.com/ykvlv/cowin-alert-bot/internal/domain"
	"github.com/ykvlv/cowin-alert-bot/internal/format"
)

// ensureUser makes sure a user row exists and returns it.
func (r *Router) ensureUser(ctx context.Context, userID, chatID int64) (*domain.User, error) {
	u, created, err := r.repo.GetOrCreateUser(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}
	if created {
		r.log.Info("new user", zap.Int64("user_id", userID))
	}
	return u, nil
}

// --- Generic helpers ---

func (r *Router) sendText(chatID int64, text string) {
	if err := r.SendPlain(chatID, text); err != nil {
		r.log.Warn("send reply failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

// missingPreference returns the prompt for the first unset preference, or "".
func missingPreference(u *domain.User) string {
	if u.AgePreference == domain.AgeUnknown {
		return askAgeText
	}
	if u.Pincode == "" {
		return askPincodeText
	}
	return ""
}

// --- Commands ---

func (r *Router) handleStart(ctx context.Context, userID, chatID int64, username string) {
	if _, err := r.ensureUser(ctx, userID, chatID); err != nil {
		r.log.Error("ensureUser failed", zap.Error(err))
		r.sendText(chatID, "Profile initialization error. Please try again later.")
		return
	}
	r.sendText(chatID, fmt.Sprintf(startTextFmt, username))
}

func (r *Router) handlePincode(ctx context.Context, userID, chatID int64, args string) {
	pincode, err := domain.ParsePincode(args)
	if err != nil {
		r.sendText(chatID, "Please send a valid 6 digit pincode, e.g. /pincode 560001")
		return
	}
	r.setPincode(ctx, userID, chatID, pincode)
}

func (r *Router) setPincode(ctx context.Context, userID, chatID int64, pincode string) {
	if _, err := r.ensureUser(ctx, userID, chatID); err != nil {
		r.log.Error("ensureUser failed", zap.Error(err))
		r.sendText(chatID, "Could not save pincode.")
		return
	}
	if err := r.repo.SetPincode(ctx, userID, pincode); err != nil {
		r.log.Error("SetPincode failed", zap.Int64("user_id", userID), zap.Error(err))
		r.sendText(chatID, "Could not save pincode.")
		return
	}
	u, err := r.repo.GetUser(ctx, userID)
	if err == nil && u.AgePreference == domain.AgeUnknown {
		r.sendText(chatID, "Pincode is set to "+pincode+". "+askAgeText)
		return
	}
	r.sendText(chatID, "Pincode is set to "+pincode+". "+nextStepsText)
}

func (r *Router) handleAge(ctx context.Context, userID, chatID int64, args string) {
	pref, err := domain.ParseAgePreference(args)
	if err != nil {
		r.sendText(chatID, askAgeText)
		return
	}
	u, err := r.ensureUser(ctx, userID, chatID)
	if err != nil {
		r.log.Error("ensureUser failed", zap.Error(err))
		r.sendText(chatID, "Could not save age preference.")
		return
	}
	if err := r.repo.SetAgePreference(ctx, userID, pref); err != nil {
		r.log.Error("SetAgePreference failed", zap.Int64("user_id", userID), zap.Error(err))
		r.sendText(chatID, "Could not save age preference.")
		return
	}
	if u.Pincode == "" {
		r.sendText(chatID, "Age preference has been set to "+pref.String()+". "+askPincodeText)
		return
	}
	r.sendText(chatID, "Age preference has been set to "+pref.String()+". "+nextStepsText)
}

func (r *Router) handleEnable(ctx context.Context, userID, chatID int64) {
	u, err := r.ensureUser(ctx, userID, chatID)
	if err != nil {
		r.log.Error("ensureUser failed", zap.Error(err))
		r.sendText(chatID, "Failed to enable alerts.")
		return
	}
	if prompt := missingPreference(u); prompt != "" {
		r.sendText(chatID, prompt)
		return
	}
	if err := r.repo.SetAlertsEnabled(ctx, userID, true); err != nil {
		r.log.Error("enable alerts failed", zap.Int64("user_id", userID), zap.Error(err))
		r.sendText(chatID, "Failed to enable alerts.")
		return
	}
	r.sendText(chatID, alertsEnabledText)
}

func (r *Router) handleDisable(ctx context.Context, userID, chatID int64) {
	if _, err := r.ensureUser(ctx, userID, chatID); err != nil {
		r.log.Error("ensureUser failed", zap.Error(err))
		r.sendText(chatID, "Failed to pause alerts.")
		return
	}
	if err := r.repo.SetAlertsEnabled(ctx, userID, false); err != nil {
		r.log.Error("disable alerts failed", zap.Int64("user_id", userID), zap.Error(err))
		r.sendText(chatID, "Failed to pause alerts.")
		return
	}
	r.sendText(chatID, alertsDisabledText)
}

func (r *Router) handleCheck(ctx context.Context, userID, chatID int64) {
	u, err := r.ensureUser(ctx, userID, chatID)
	if err != nil {
		r.log.Error("ensureUser failed", zap.Error(err))
		r.sendText(chatID, "Error reading your settings.")
		return
	}
	if prompt := missingPreference(u); prompt != "" {
		r.sendText(chatID, prompt)
		return
	}

	centers, err := r.provider.FetchCenters(ctx, u.Pincode, cowin.Today(r.now(), r.loc))
	switch {
	case errors.Is(err, cowin.ErrRateLimited):
		r.sendText(chatID, providerBusyText)
		return
	case errors.Is(err, cowin.ErrInvalidRequest):
		r.log.Info("check rejected by provider", zap.String("pincode", u.Pincode), zap.Error(err))
		var apiErr *cowin.APIError
		if errors.As(err, &apiErr) && apiErr.Code == cowin.CodeInvalidPincode {
			r.sendText(chatID, "CoWIN says pincode "+u.Pincode+" is invalid. Please set another one with /pincode.")
			return
		}
		r.sendText(chatID, "CoWIN could not process the request for pincode "+u.Pincode+". Please try again later.")
		return
	case err != nil:
		r.log.Warn("check fetch failed", zap.String("pincode", u.Pincode), zap.Error(err))
		r.sendText(chatID, providerBusyText)
		return
	}

	matched := domain.FilterByAge(u.AgePreference, domain.FilterAvailable(centers))
	if len(matched) == 0 {
		r.sendText(chatID, format.NoSlots(u.Pincode, u.AgePreference))
		return
	}
	if err := r.SendMessage(chatID, format.Listing(u.Pincode, u.AgePreference, matched)); err != nil {
		r.log.Warn("send listing failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (r *Router) handleStats(ctx context.Context, userID, chatID int64) {
	if !r.maintainers[userID] {
		r.sendText(chatID, unknownCommandText)
		return
	}
	st, err := r.repo.Stats(ctx)
	if err != nil {
		r.log.Error("Stats failed", zap.Error(err))
		r.sendText(chatID, "Could not load stats.")
		return
	}
	r.sendText(chatID, fmt.Sprintf(statsFmt, st.Users, st.AlertsEnabled, st.Pincodes, st.AlertsSent))
}

// handleFreeForm accepts a bare pincode or a request to stop alerts.
func (r *Router) handleFreeForm(ctx context.Context, userID, chatID int64, text string) {
	if domain.IsDisableText(text) {
		r.handleDisable(ctx, userID, chatID)
		return
	}
	if pincode, err := domain.ParsePincode(text); err == nil {
		r.setPincode(ctx, userID, chatID, pincode)
		return
	}
	r.sendText(chatID, unknownCommandText)
}
