package httpapi

import (
	"net/http"
	"net/url"
)

// alertHeaders writes the X-<app>-alert, X-<app>-error and X-<app>-params
// headers a front end uses to show notifications.
type alertHeaders struct {
	appName string
}

func (a alertHeaders) alertKey() string  { return "X-" + a.appName + "-alert" }
func (a alertHeaders) errorKey() string  { return "X-" + a.appName + "-error" }
func (a alertHeaders) paramsKey() string { return "X-" + a.appName + "-params" }

func (a alertHeaders) exposed() []string {
	return []string{a.alertKey(), a.errorKey(), a.paramsKey()}
}

func (a alertHeaders) alert(w http.ResponseWriter, message, param string) {
	w.Header().Set(a.alertKey(), message)
	w.Header().Set(a.paramsKey(), url.QueryEscape(param))
}

func (a alertHeaders) created(w http.ResponseWriter, entity, id string) {
	a.alert(w, "A new "+entity+" is created with identifier "+id, id)
}

func (a alertHeaders) updated(w http.ResponseWriter, entity, id string) {
	a.alert(w, "A "+entity+" is updated with identifier "+id, id)
}

func (a alertHeaders) deleted(w http.ResponseWriter, entity, id string) {
	a.alert(w, "A "+entity+" is deleted with identifier "+id, id)
}

func (a alertHeaders) failure(w http.ResponseWriter, entity, key string) {
	w.Header().Set(a.errorKey(), "error."+key)
	w.Header().Set(a.paramsKey(), entity)
}
