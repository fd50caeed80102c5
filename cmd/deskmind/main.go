// Command deskmind is the CLI entrypoint for the desktop-automation
// reasoning-and-planning core: it wires the five pipeline stages
// together and exposes spec.md's single process(utterance,
// session_id?) operation as a subcommand.
package main

func main() {
	Execute()
}
