// Copyright The Gatherhall Authors.
// SPDX-License-Identifier: MIT

package service

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gatherhall/events-service/internal/domain"
	"github.com/gatherhall/events-service/internal/domain/models"
	"github.com/gatherhall/events-service/pkg/dates"
)

// RecurrenceService validates stored recurrence fields into a canonical
// definition and interprets that into a RecurrenceSpec. Both operations
// are pure.
type RecurrenceService struct{}

// NewRecurrenceService creates a new RecurrenceService.
func NewRecurrenceService() *RecurrenceService {
	return &RecurrenceService{}
}

// Canonicalize is the strict, write-time pass: any internal
// inconsistency in the definition is a blocking validation error. In
// particular a weekday that disagrees with the anchor date is flagged,
// never silently repaired; which of the two is correct is a call the
// host has to make.
func (s *RecurrenceService) Canonicalize(definition *models.EventDefinition) (*models.CanonicalDefinition, error) {
	return s.canonicalize(definition, true)
}

// Repair is the lenient, read-time pass: it derives the most defensible
// value for each inconsistency and records what it did as issues, so
// that a damaged stored row still renders instead of vanishing from
// every surface.
func (s *RecurrenceService) Repair(definition *models.EventDefinition) *models.CanonicalDefinition {
	canonical, _ := s.canonicalize(definition, false)
	return canonical
}

func (s *RecurrenceService) canonicalize(definition *models.EventDefinition, strict bool) (*models.CanonicalDefinition, error) {
	if definition == nil {
		return nil, domain.NewValidationError("event definition is required")
	}

	canonical := &models.CanonicalDefinition{
		UID:            definition.UID,
		AnchorDate:     definition.AnchorDate,
		EndDate:        definition.RecurrenceEndDate,
		MaxOccurrences: definition.MaxOccurrences,
	}

	rule, ordinals, err := parseRule(definition.RecurrenceRule)
	if err != nil {
		if strict {
			return nil, domain.NewValidationError("invalid recurrence rule", err)
		}
		canonical.Issues = append(canonical.Issues, models.CanonicalizationIssue{
			Code:   models.IssueUnknownRule,
			Detail: err.Error(),
		})
		rule, ordinals = models.RuleNone, nil
	}
	canonical.Rule = rule
	canonical.Ordinals = ordinals

	if canonical.MaxOccurrences < 0 {
		if strict {
			return nil, domain.NewValidationError("max occurrences must not be negative")
		}
		canonical.MaxOccurrences = 0
	}

	// Custom series expand from their explicit date list alone; any
	// weekday or anchor left on the row is legacy display data. An
	// empty custom list is a valid degenerate series with no
	// occurrences.
	if rule == models.RuleCustom {
		for _, d := range definition.CustomDates {
			if _, err := dates.ParseDateKey(string(d)); err != nil {
				if strict {
					return nil, domain.NewValidationError("invalid custom date", err)
				}
				canonical.Issues = append(canonical.Issues, models.CanonicalizationIssue{
					Code:   models.IssueUnknownRule,
					Detail: err.Error(),
				})
			}
		}
		canonical.CustomDates = normalizeCustomDates(definition.CustomDates)
		if len(canonical.CustomDates) == 0 && !strict {
			canonical.Issues = append(canonical.Issues, models.CanonicalizationIssue{
				Code:   models.IssueEmptyCustomSeries,
				Detail: "custom rule with no dates produces no occurrences",
			})
		}
		return canonical, nil
	}

	weekday, weekdayKnown, err := resolveWeekday(definition)
	if err != nil {
		if strict {
			return nil, domain.NewValidationError("invalid weekday", err)
		}
		canonical.Issues = append(canonical.Issues, models.CanonicalizationIssue{
			Code:   models.IssueUnknownRule,
			Detail: err.Error(),
		})
		weekdayKnown = false
	}

	if weekdayKnown && !definition.AnchorDate.IsZero() {
		anchorWeekday := definition.AnchorDate.Weekday()
		if anchorWeekday != weekday {
			detail := fmt.Sprintf("stored weekday %s disagrees with anchor date %s (%s)",
				weekday, definition.AnchorDate, anchorWeekday)
			if strict {
				return nil, domain.NewValidationError(detail)
			}
			// Display-time fallback only: trust the concrete date over
			// the day name, and make the disagreement visible.
			canonical.Issues = append(canonical.Issues, models.CanonicalizationIssue{
				Code:   models.IssueWeekdayMismatch,
				Detail: detail,
			})
			weekday = anchorWeekday
		}
	}

	if !weekdayKnown && !definition.AnchorDate.IsZero() {
		weekday = definition.AnchorDate.Weekday()
		weekdayKnown = true
		if !strict && rule != models.RuleNone {
			canonical.Issues = append(canonical.Issues, models.CanonicalizationIssue{
				Code:   models.IssueWeekdayDerived,
				Detail: fmt.Sprintf("weekday %s derived from anchor date %s", weekday, definition.AnchorDate),
			})
		}
	}

	if weekdayKnown {
		canonical.Weekday = &weekday
	}

	switch rule {
	case models.RuleWeekly, models.RuleBiweekly:
		if !weekdayKnown {
			if strict {
				return nil, domain.NewValidationError("weekly rule requires a weekday or an anchor date")
			}
			canonical.Issues = append(canonical.Issues, models.CanonicalizationIssue{
				Code:   models.IssueMissingWeekday,
				Detail: "weekly rule without weekday or anchor date produces no occurrences",
			})
		}
		if rule == models.RuleBiweekly && definition.AnchorDate.IsZero() {
			if strict {
				return nil, domain.NewValidationError("biweekly rule requires an anchor date to fix its phase")
			}
			canonical.Issues = append(canonical.Issues, models.CanonicalizationIssue{
				Code:   models.IssueMissingAnchor,
				Detail: "biweekly rule without anchor date; phase will align to the query window",
			})
		}
	case models.RuleMonthly:
		// Ordinal-monthly patterns are meaningless without a target
		// weekday.
		if !weekdayKnown {
			if strict {
				return nil, domain.NewValidationError("ordinal monthly rule requires a weekday or an anchor date")
			}
			canonical.Issues = append(canonical.Issues, models.CanonicalizationIssue{
				Code:   models.IssueMissingWeekday,
				Detail: "ordinal monthly rule without weekday or anchor date produces no occurrences",
			})
		}
	}

	return canonical, nil
}

// Interpret maps a canonical definition to its RecurrenceSpec. The
// mapping is total: every canonical shape lands on exactly one variant.
// Shapes that cannot expand (e.g. a weekly rule whose weekday could not
// be derived) map to specs that produce no occurrences.
func (s *RecurrenceService) Interpret(canonical *models.CanonicalDefinition) models.RecurrenceSpec {
	if canonical == nil {
		return models.RecurrenceSpec{Kind: models.RecurrenceNone}
	}

	switch canonical.Rule {
	case models.RuleWeekly, models.RuleBiweekly:
		if canonical.Weekday == nil {
			return models.RecurrenceSpec{Kind: models.RecurrenceNone}
		}
		interval := 1
		if canonical.Rule == models.RuleBiweekly {
			interval = 2
		}
		return models.RecurrenceSpec{
			Kind:          models.RecurrenceWeekly,
			Weekday:       *canonical.Weekday,
			IntervalWeeks: interval,
			Anchor:        canonical.AnchorDate,
		}
	case models.RuleMonthly:
		if canonical.Weekday == nil || len(canonical.Ordinals) == 0 {
			return models.RecurrenceSpec{Kind: models.RecurrenceNone}
		}
		return models.RecurrenceSpec{
			Kind:     models.RecurrenceMonthly,
			Weekday:  *canonical.Weekday,
			Ordinals: canonical.Ordinals,
			Anchor:   canonical.AnchorDate,
		}
	case models.RuleCustom:
		return models.RecurrenceSpec{
			Kind:  models.RecurrenceCustom,
			Dates: canonical.CustomDates,
		}
	default:
		return models.RecurrenceSpec{
			Kind: models.RecurrenceNone,
			Date: canonical.AnchorDate,
		}
	}
}

// parseRule normalizes the stored rule string into one of the Rule*
// constants plus, for monthly rules, the requested ordinals.
func parseRule(raw string) (string, []int, error) {
	rule := strings.ToLower(strings.TrimSpace(raw))

	switch rule {
	case "", models.RuleNone:
		return models.RuleNone, nil, nil
	case models.RuleWeekly:
		return models.RuleWeekly, nil, nil
	case models.RuleBiweekly, "fortnightly":
		return models.RuleBiweekly, nil, nil
	case models.RuleCustom:
		return models.RuleCustom, nil, nil
	}

	if spec, ok := strings.CutPrefix(rule, models.RuleMonthly+":"); ok {
		ordinals, err := parseOrdinals(spec)
		if err != nil {
			return "", nil, err
		}
		return models.RuleMonthly, ordinals, nil
	}

	return "", nil, fmt.Errorf("unrecognized recurrence rule %q", raw)
}

func parseOrdinals(spec string) ([]int, error) {
	var ordinals []int
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := parseOrdinal(part)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(ordinals, n) {
			ordinals = append(ordinals, n)
		}
	}
	if len(ordinals) == 0 {
		return nil, fmt.Errorf("monthly rule lists no ordinals")
	}
	// Keep calendar order within a month: 1st..5th, then last.
	slices.SortFunc(ordinals, func(a, b int) int {
		return ordinalRank(a) - ordinalRank(b)
	})
	return ordinals, nil
}

func parseOrdinal(part string) (int, error) {
	switch part {
	case "last", "-1":
		return dates.OrdinalLast, nil
	case "1st", "2nd", "3rd", "4th", "5th":
		return int(part[0] - '0'), nil
	}
	n, err := strconv.Atoi(part)
	if err != nil || n < 1 || n > 5 {
		return 0, fmt.Errorf("invalid monthly ordinal %q", part)
	}
	return n, nil
}

func ordinalRank(n int) int {
	if n == dates.OrdinalLast {
		return 6
	}
	return n
}

// resolveWeekday parses the stored day name when present.
func resolveWeekday(definition *models.EventDefinition) (time.Weekday, bool, error) {
	if definition.Weekday == "" {
		return 0, false, nil
	}
	weekday, ok := dates.ParseWeekday(definition.Weekday)
	if !ok {
		return 0, false, fmt.Errorf("unrecognized weekday %q", definition.Weekday)
	}
	return weekday, true, nil
}

// normalizeCustomDates sorts and deduplicates the explicit date list.
func normalizeCustomDates(customDates []dates.DateKey) []dates.DateKey {
	if len(customDates) == 0 {
		return nil
	}
	normalized := make([]dates.DateKey, 0, len(customDates))
	for _, d := range customDates {
		if _, err := dates.ParseDateKey(string(d)); err != nil {
			continue
		}
		normalized = append(normalized, d)
	}
	slices.Sort(normalized)
	return slices.Compact(normalized)
}
