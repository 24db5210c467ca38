package handlers

import (
	"strings"
	"testing"
	"time"

	"github.com/velta-dev/afisha-bot/internal/bot/keyboard"
	"github.com/velta-dev/afisha-bot/internal/catalog"
	"github.com/velta-dev/afisha-bot/internal/domain"
)

func browseFixture() *createRecorder {
	soon := time.Now().Add(24 * time.Hour)
	return &createRecorder{
		visibleByCity: map[string][]*domain.Event{
			"": {
				{ID: 1, Title: "Moscow jam", City: "Moscow", DateTime: soon, IsVisible: true},
				{ID: 2, Title: "Kazan open air", City: "Kazan", DateTime: soon, IsVisible: true},
				{ID: 3, Title: "Sochi stand-up", City: "Sochi", DateTime: soon, IsVisible: true},
			},
			"Moscow": {
				{ID: 1, Title: "Moscow jam", City: "Moscow", DateTime: soon, IsVisible: true},
			},
		},
	}
}

func TestEventsList_CityViewNarrowsToUserCity(t *testing.T) {
	user := &domain.User{ID: 1, TelegramID: 10, Role: domain.RoleUser, City: "Moscow"}
	svc := catalog.NewService(browseFixture(), testLogger())
	h := NewEventsListHandler(svc, keyboard.NewBuilder(testLogger()), false, testLogger())

	c := newWizardContext(user, "")
	if err := h(c); err != nil {
		t.Fatalf("handler: %v", err)
	}

	if len(c.sent) != 1 || !strings.Contains(c.sent[0], "in Moscow") {
		t.Fatalf("expected the city header, got %v", c.sent)
	}
	if rows := len(c.markups[0].InlineKeyboard); rows != 1 {
		t.Fatalf("expected only the Moscow event, got %d rows", rows)
	}
}

func TestEventsList_AllCitiesIgnoresUserCity(t *testing.T) {
	user := &domain.User{ID: 1, TelegramID: 10, Role: domain.RoleUser, City: "Moscow"}
	svc := catalog.NewService(browseFixture(), testLogger())
	h := NewEventsListHandler(svc, keyboard.NewBuilder(testLogger()), true, testLogger())

	c := newWizardContext(user, "")
	if err := h(c); err != nil {
		t.Fatalf("handler: %v", err)
	}

	if len(c.sent) != 1 || strings.Contains(c.sent[0], "in Moscow") {
		t.Fatalf("all-cities view must not carry a city header, got %v", c.sent)
	}
	if rows := len(c.markups[0].InlineKeyboard); rows != 3 {
		t.Fatalf("expected events from every city, got %d rows", rows)
	}
}

func TestChangeCity_ReopensThePicker(t *testing.T) {
	user := &domain.User{ID: 1, TelegramID: 10, Role: domain.RoleUser, City: "Moscow"}
	cities := []string{"Moscow", "Kazan", "Sochi"}
	h := NewChangeCityHandler(keyboard.NewBuilder(testLogger()), cities, testLogger())

	c := newWizardContext(user, "")
	if err := h(c); err != nil {
		t.Fatalf("handler: %v", err)
	}

	if len(c.sent) != 1 || !strings.Contains(c.sent[0], "Pick your city") {
		t.Fatalf("expected the city prompt, got %v", c.sent)
	}
	if len(c.markups) != 1 || len(c.markups[0].InlineKeyboard) != len(cities) {
		t.Fatalf("expected one button per city, got %v", c.markups)
	}
}
