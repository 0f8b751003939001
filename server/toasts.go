package server

import (
	"time"

	"github.com/jrsteele09/readify/notify"
)

const (
	successToast = 3 * time.Second
	errorToast   = 6 * time.Second
	orderToast   = 2 * time.Second
)

func toastError(title string) notify.Notification {
	return notify.Error(title, errorToast)
}

func toastSuccess(title string) notify.Notification {
	return notify.Success(title, successToast)
}
