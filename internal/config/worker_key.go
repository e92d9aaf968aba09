package config

type WorkerKeyStruct struct {
	NotificationsQueue string
	UserActivityQueue  string
}

var WorkerKey = &WorkerKeyStruct{
	NotificationsQueue: "notifications_queue",
	UserActivityQueue:  "user_activity_queue",
}
