// Package recorder writes validation results to history storage.
//
// Records are built synchronously (so the caller gets the record ID back)
// and written by a background worker. Close drains pending records:
//
//	rec := recorder.NewRecorder(store, nil, collector)
//	defer rec.Close()
//
//	res := engine.ValidateFile(ctx, path)
//	record, err := rec.Record(ctx, res)
package recorder
