package workspace

// View is one of the five mutually exclusive screens.
//
// Each view has exactly one URL (see viewPaths). The handlers redirect with
// 303 whenever the requested URL and the resolved view disagree.
type View string

const (
	ViewLanding   View = "landing"
	ViewLogin     View = "login"
	ViewRegister  View = "register"
	ViewDashboard View = "dashboard"
	ViewCreateAd  View = "create-ad"
)

var viewPaths = map[View]string{
	ViewLanding:   "/",
	ViewLogin:     "/login",
	ViewRegister:  "/register",
	ViewDashboard: "/dashboard",
	ViewCreateAd:  "/ads/new",
}

// Path is the URL the view is served under.
func (v View) Path() string {
	if p, ok := viewPaths[v]; ok {
		return p
	}
	return "/"
}

// Resolve returns the view that is actually shown for a requested view.
//
// THE TWO HALVES OF THE APP:
// Views split into a signed-out half (landing, login, register) and a
// signed-in half (dashboard, create-ad). Asking for a view from the other
// half never shows it; you land on that half's home screen instead:
//
//	                 signed out    signed in
//	landing          landing       dashboard
//	login            login         dashboard
//	register         register      dashboard
//	dashboard        landing       dashboard
//	create-ad        landing       create-ad
//
// Both the stored view and every GET go through Resolve, so a stale
// bookmark or a sign-out in another tab can never render the wrong half.
func Resolve(v View, signedIn bool) View {
	if signedIn {
		if v == ViewCreateAd {
			return ViewCreateAd
		}
		return ViewDashboard
	}
	switch v {
	case ViewLogin, ViewRegister:
		return v
	default:
		return ViewLanding
	}
}
