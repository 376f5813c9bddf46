// Package register implements the storefront registration form as a headless
// controller.
//
// A Form owns the four field values, the password match check, the call to the
// remote Registrar and the outcome handling: the returned session is written to
// the injected SessionStore, the user is sent to the redirect target and a
// notification is raised. Rendering is left to the caller, which reads State,
// SubmitDisabled and SubmitLabel to draw the submit control.
//
//	form := register.NewForm(
//		register.WithRegistrar(client),
//		register.WithSessionStore(store),
//		register.WithNavigator(nav),
//		register.WithNotifier(flash),
//		register.WithRedirect(register.ResolveRedirect(r.URL.Query())),
//	)
//	form.Mount(ctx)
//	defer form.Unmount()
//
//	form.SetName("Ann")
//	form.SetEmail("ann@x.com")
//	form.SetPassword("p1")
//	form.SetConfirmPassword("p1")
//	err := form.Submit(ctx)
package register
