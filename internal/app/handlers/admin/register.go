package admin

import "staycal/internal/app/commands"

// Register wires the admin commands. Publishing is optional.
func Register(bus *commands.InMemoryBus, login *LoginHandler, logout *LogoutHandler, publish *PublishHandler) {
	commands.Register(bus, login.Handle)
	commands.Register(bus, logout.Handle)
	if publish != nil {
		commands.Register(bus, publish.Handle)
	}
}
