package session

// Route is a destination the session sends the user to after a state change
type Route string

const (
	RouteHome  Route = "home"
	RouteLogin Route = "login"
)

// Navigator performs navigation side effects
type Navigator interface {
	Navigate(route Route)
}

// NavigatorFunc adapts a function to a Navigator
type NavigatorFunc func(route Route)

func (f NavigatorFunc) Navigate(route Route) {
	f(route)
}

type noopNavigator struct{}

func (noopNavigator) Navigate(Route) {}
