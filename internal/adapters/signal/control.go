package signal

import "github.com/dkeye/Poker/internal/app"

func (ctl *SignalWSController) handlePing(cl *client) {
	ctl.sendEvent(cl, app.PongEvent())
}
