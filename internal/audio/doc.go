// Package audio downloads a show's archive audio, transcodes it to the
// canonical format and resolves the local artifact for streaming.
//
// Artifacts live under a storage root: raw downloads in raw/<show id><ext>
// and transcodes in converted/<show id>.<format>. Paths stored on a show are
// relative to that root. Both stages skip work when their output already
// exists, so a retried job resumes where the last attempt stopped.
package audio
