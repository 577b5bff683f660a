// Package registry is the SQLite system of record for enrolled palm embeddings.
//
// Each user has at most one palm record. Embeddings are stored as JSON
// numeric arrays together with their sampled hash and a verified flag; only
// verified records are offered as match candidates, in enrollment order.
//
//	reg, err := registry.Open("palms.db")
//	if err != nil {
//	    return err
//	}
//	defer reg.Close()
//
//	rec, err := reg.Enroll(ctx, registry.Enrollment{UserID: "u-42", Embedding: v})
//	...
//	res, err := matcher.Scan(ctx, reg, query)
//
// Candidate IDs are user IDs, so a scan hit names the matching user.
package registry
