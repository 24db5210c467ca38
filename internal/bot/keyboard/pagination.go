package keyboard

import (
	"fmt"
	"strconv"
)

// PaginationButtons returns up to three inline buttons (prev, current page, next)
// allowing the caller to paginate lists using a shared action. A non-empty
// scope is carried in the payload so the page flip stays in the same view.
func PaginationButtons(action, scope string, page, totalPages int) []InlineButton {
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	buttons := make([]InlineButton, 0, 3)

	if page > 1 {
		buttons = append(buttons, InlineButton{
			Text:   "◀️ Prev",
			Unique: action,
			Data:   pageData(scope, page-1),
		})
	}

	buttons = append(buttons, InlineButton{
		Text:   fmt.Sprintf("Page %d/%d", page, totalPages),
		Unique: action,
		Data:   pageData(scope, page),
	})

	if page < totalPages {
		buttons = append(buttons, InlineButton{
			Text:   "Next ▶️",
			Unique: action,
			Data:   pageData(scope, page+1),
		})
	}

	return buttons
}

func pageData(scope string, page int) string {
	if scope == "" {
		return strconv.Itoa(page)
	}
	return scope + CallbackDataSeparator + strconv.Itoa(page)
}
