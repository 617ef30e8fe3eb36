package main

import (
	"flag"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/df07/go-weekend-raytracer/pkg/scene"
	"github.com/df07/go-weekend-raytracer/web/server"
)

func main() {
	// A missing .env file is fine
	_ = godotenv.Load()

	defaultPort := 8080
	if p, err := strconv.Atoi(os.Getenv("RAYTRACER_PORT")); err == nil {
		defaultPort = p
	}

	// Parse command line flags
	port := flag.Int("port", defaultPort, "Port to serve on (env RAYTRACER_PORT)")
	scenesDir := flag.String("scenes", scene.FindScenesDir(), "Directory of JSON scene files")
	flag.Parse()

	// Create and start web server
	webServer := server.NewServer(*port, *scenesDir)

	log.Printf("Weekend Raytracer Web Server")
	if *scenesDir != "" {
		log.Printf("Loading scene files from %s", *scenesDir)
	}
	log.Printf("API available at http://localhost:%d/api/scenes", *port)

	if err := webServer.Start(); err != nil {
		log.Printf("Error starting server: %v", err)
		os.Exit(1)
	}
}
