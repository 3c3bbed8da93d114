package config

type WorkerKeyStruct struct {
	GenerationTasksQueue string
}

var WorkerKey = &WorkerKeyStruct{
	GenerationTasksQueue: "generation_tasks_queue",
}
