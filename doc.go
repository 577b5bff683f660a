// Package palmvec turns palm embeddings captured by client devices into
// canonical vectors and matches them against enrolled palms.
//
// An Engine ties the pieces together:
//
//   - package embedding decodes Base64 half-float payloads and normalizes the
//     three accepted input shapes into 512-element vectors
//   - package match scores pairs with cosine similarity and scans candidate
//     populations first-match-wins
//   - package registry and package gallery supply the verified candidates
//
// # Quick Start
//
//	ctx := context.Background()
//	eng, err := palmvec.New(palmvec.WithDecodeCache(1024))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	reg, _ := registry.Open("palms.db")
//	defer reg.Close()
//
//	id, err := eng.Identify(ctx, reg, embedding.Base64(payload))
//	switch {
//	case errors.Is(err, palmvec.ErrInvalidEmbedding):
//	    // reject the capture
//	case err != nil:
//	    return err
//	case id.Matched:
//	    fmt.Println("welcome back", id.ID, id.Score)
//	}
//
// # Limits
//
// Identification is an authentication attempt. WithResourceController bounds
// how many scans run at once and how fast attempts may arrive:
//
//	rc := resource.NewController(resource.Config{MaxConcurrentScans: 4, AttemptsPerSecond: 20})
//	eng, _ := palmvec.New(palmvec.WithResourceController(rc))
//
// # Observability
//
// Logging is opt-in through WithLogger. Lossy repairs of client payloads
// (odd-byte trim, truncation, padding, sanitizing) are logged at Warn and
// counted by the MetricsCollector.
package palmvec
