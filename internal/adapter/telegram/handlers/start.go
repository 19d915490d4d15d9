package handlers

// Start lists the available commands for /start and /help.
func Start() string {
	return `Browse the creator catalogue:
/popular [n] - most viewed creators
/tags [keywords] - tags matching every keyword
/creators <tag ids> - creators ranked by shared tags
/creator <id> - creator detail and similar creators
/ping - check the bot is alive`
}
