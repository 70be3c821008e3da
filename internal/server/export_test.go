package server

import "time"

// SetKeepAlive overrides the WebSocket pong wait and ping period, returning
// a function that restores them
func SetKeepAlive(pong, ping time.Duration) func() {
	oldPong, oldPing := pongWait, pingPeriod
	pongWait, pingPeriod = pong, ping
	return func() {
		pongWait, pingPeriod = oldPong, oldPing
	}
}
