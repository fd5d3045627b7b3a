// Package overseerr provides a client for interacting with the Overseerr API.
//
// Overseerr is a request management and media discovery tool for Plex/Jellyfin/Emby.
// This package implements the subset of the /api/v1 surface needed to query status,
// search the catalog, list and submit requests, and enumerate library backends and users.
//
// # Architecture
//
//   - Client: the API client. It owns one lazily created connection per session and
//     injects the X-Api-Key header on every request
//   - Types: Domain models representing Overseerr entities (requests, media, users, servers)
//   - API: Interface definitions for testability and modularity
//   - Errors: Structured error types for better error handling
//
// # Usage
//
//	logger := zerolog.New(os.Stderr)
//	client, err := overseerr.NewClient(
//		"https://overseerr.example.com",
//		"your-api-key",
//		logger,
//		overseerr.WithTimeouts(30*time.Second, 5*time.Second),
//		overseerr.WithDefaultUserID(1),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	results, err := client.SearchMedia(ctx, "dune", 1)
//
// # Error Handling
//
// Every failed request returns one of three error types, each carrying the method and path:
//
//   - APIError: non-2xx response, with the status code and the upstream message
//   - NetworkError: connection, timeout or DNS failure, wrapping the cause
//   - PayloadError: 2xx response whose body is not valid JSON
//
// Sentinels can be matched with errors.Is:
//
//	if errors.Is(err, overseerr.ErrUnauthorized) {
//		// Handle auth failure
//	}
package overseerr
