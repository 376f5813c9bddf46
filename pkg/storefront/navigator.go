package storefront

import (
	"net/http"
	"sync"
)

// navigator records where the form wants the user to go; the handler turns it
// into the response.
type navigator struct {
	mu     sync.Mutex
	target string
}

func (n *navigator) NavigateTo(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.target = path
}

func (n *navigator) Target() (string, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.target, n.target != ""
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// redirectTo sends the user to target. htmx requests get an HX-Redirect so the
// whole page changes instead of the swapped fragment.
func redirectTo(w http.ResponseWriter, r *http.Request, target string) {
	if isHTMX(r) {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
