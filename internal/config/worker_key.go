package config

type WorkerKeyStruct struct {
	AttemptCleanupQueue string
}

var WorkerKey = &WorkerKeyStruct{
	AttemptCleanupQueue: "attempt_cleanup_queue",
}
