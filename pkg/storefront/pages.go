package storefront

import (
	"github.com/chasefleming/elem-go"
	"github.com/chasefleming/elem-go/attrs"
	"github.com/chasefleming/elem-go/htmx"
	"github.com/tendant/simple-storefront/pkg/notification"
	"github.com/tendant/simple-storefront/pkg/register"
	"github.com/tendant/simple-storefront/pkg/sessions"
)

const (
	htmxScript   = "https://unpkg.com/htmx.org@1.9.12"
	formSection  = "register-form"
	pageStyles   = ".htmx-indicator{display:none} .htmx-request .htmx-indicator{display:inline} .htmx-request .idle-label{display:none} .flash-error{color:#b00020} .flash-success{color:#1b5e20}"
	registerPath = "/register"
)

// registerView is everything the registration page shows.
type registerView struct {
	FormID      string
	Fields      register.Fields
	Redirect    string
	SubmitLabel string
	Disabled    bool
	Flashes     []notification.Message
}

func newRegisterView(form *register.Form, flashes []notification.Message) registerView {
	return registerView{
		FormID:      form.ID(),
		Fields:      form.Fields(),
		Redirect:    form.Redirect(),
		SubmitLabel: form.SubmitLabel(),
		Disabled:    form.SubmitDisabled(),
		Flashes:     flashes,
	}
}

func layout(title string, content ...elem.Node) *elem.Element {
	return elem.Html(attrs.Props{attrs.Lang: "en"},
		elem.Head(nil,
			elem.Meta(attrs.Props{attrs.Charset: "utf-8"}),
			elem.Title(nil, elem.Text(title)),
			elem.Script(attrs.Props{attrs.Src: htmxScript}),
			elem.Style(nil, elem.CSS(pageStyles)),
		),
		elem.Body(nil,
			elem.Main(attrs.Props{attrs.Class: "container"}, content...),
		),
	)
}

func flashList(messages []notification.Message) elem.Node {
	if len(messages) == 0 {
		return elem.Div(attrs.Props{attrs.Class: "flashes"})
	}
	items := make([]elem.Node, 0, len(messages))
	for _, m := range messages {
		items = append(items, elem.Li(attrs.Props{
			attrs.Class: "flash-" + string(m.Level),
			"role":      "alert",
		}, elem.Text(m.Text)))
	}
	return elem.Ul(attrs.Props{attrs.Class: "flashes"}, items...)
}

func field(label, name, inputType, value, autocomplete string) elem.Node {
	return elem.Div(attrs.Props{attrs.Class: "field"},
		elem.Label(attrs.Props{attrs.For: name}, elem.Text(label)),
		elem.Input(attrs.Props{
			attrs.ID:       name,
			attrs.Name:     name,
			attrs.Type:     inputType,
			attrs.Value:    value,
			"autocomplete": autocomplete,
		}),
	)
}

// passwordField never echoes a value. htmx keeps what the user typed across
// the fragment swap through hx-preserve.
func passwordField(label, name string) elem.Node {
	return elem.Div(attrs.Props{attrs.Class: "field"},
		elem.Label(attrs.Props{attrs.For: name}, elem.Text(label)),
		elem.Input(attrs.Props{
			attrs.ID:       name,
			attrs.Name:     name,
			attrs.Type:     "password",
			"autocomplete": "new-password",
			"hx-preserve":  "true",
		}),
	)
}

func submitButton(v registerView) elem.Node {
	props := attrs.Props{
		attrs.Type:  "submit",
		attrs.Class: "btn btn-primary",
	}
	if v.Disabled {
		props[attrs.Disabled] = "true"
	}
	return elem.Button(props,
		elem.Span(attrs.Props{attrs.Class: "idle-label"}, elem.Text(v.SubmitLabel)),
		elem.Span(attrs.Props{attrs.Class: "htmx-indicator"}, elem.Text("Registering...")),
	)
}

func registerForm(v registerView) elem.Node {
	return elem.Div(attrs.Props{attrs.ID: formSection},
		flashList(v.Flashes),
		elem.Form(attrs.Props{
			attrs.Action:      registerPath,
			attrs.Method:      "post",
			htmx.HXPost:       registerPath,
			htmx.HXTarget:     "#" + formSection,
			htmx.HXSwap:       "outerHTML",
			"hx-select":       "#" + formSection,
			"hx-disabled-elt": "find button",
		},
			elem.Input(attrs.Props{attrs.Type: "hidden", attrs.Name: "form_id", attrs.Value: v.FormID}),
			elem.Input(attrs.Props{attrs.Type: "hidden", attrs.Name: "redirect", attrs.Value: v.Redirect}),
			field("Name", "name", "text", v.Fields.Name, "name"),
			field("Email Address", "email", "email", v.Fields.Email, "email"),
			passwordField("Password", "password"),
			passwordField("Confirm Password", "confirmPassword"),
			submitButton(v),
		),
		elem.P(attrs.Props{attrs.Class: "login-link"},
			elem.Text("Already have an account? "),
			elem.A(attrs.Props{attrs.Href: register.LoginLink(v.Redirect)}, elem.Text("Login")),
		),
	)
}

func renderRegisterPage(v registerView) string {
	return layout("Register",
		elem.H1(nil, elem.Text("Register")),
		registerForm(v),
	).Render()
}

func renderLandingPage(session *sessions.Session, flashes []notification.Message) string {
	var greeting elem.Node
	if session != nil {
		name := session.Name
		if name == "" {
			name = session.Email
		}
		greeting = elem.P(attrs.Props{attrs.Class: "greeting"}, elem.Text("Signed in as "+name))
	} else {
		greeting = elem.P(attrs.Props{attrs.Class: "greeting"},
			elem.Text("New here? "),
			elem.A(attrs.Props{attrs.Href: registerPath}, elem.Text("Create an account")),
		)
	}
	return layout("Storefront",
		elem.H1(nil, elem.Text("Storefront")),
		flashList(flashes),
		greeting,
	).Render()
}
