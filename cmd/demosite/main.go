// Command demosite starts a fake shop whose trackers grow stage by stage.
// Usage: go run ./cmd/demosite [port]
// Default port: 9999
package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/raysh454/crumb/internal/demosite"
)

func main() {
	cfg := demosite.DefaultConfig()

	if len(os.Args) > 1 {
		port, err := strconv.Atoi(os.Args[1])
		if err != nil || port < 1 || port > 65535 {
			log.Fatalf("Invalid port: %s", os.Args[1])
		}
		cfg.Port = port
	}

	fmt.Println("===========================================")
	fmt.Println("   Crumb Demo Shop")
	fmt.Println("===========================================")
	fmt.Println()
	fmt.Println("Each stage adds trackers to the page:")
	for _, st := range demosite.Stages() {
		fmt.Printf("  %d. %-15s %s\n", st.Number, st.Title, st.Description)
	}
	fmt.Println()
	fmt.Println("Scan it with: crumb --url http://localhost:" + strconv.Itoa(cfg.Port))
	fmt.Println()

	if err := demosite.New(cfg).ListenAndServe(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
