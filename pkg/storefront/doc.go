// Package storefront serves the server-rendered registration pages.
//
// Each request builds a register.Form around per-request collaborators: a
// sessions.RequestStore backed by the session cookie, a notification.Flash and
// a navigator that turns the form's navigation into a 303 or an HX-Redirect.
//
//	h := storefront.NewHandle(
//		storefront.WithRegistrar(registerclient.New(apiURL)),
//		storefront.WithSessions(sessionService, cookieManager),
//	)
//	storefront.Routes(router, h)
package storefront
