package cache

import (
	"errors"
	"fmt"
)

// key names definition
const (
	NotificationSentKey = "notification:reservation:%d:sent" // set once the confirmation email for a reservation went out, '%d' is reservation id
	AddressKey          = "address:cep:%s"                   // cached viacep lookup, '%s' is the 8 digit cep
)

func MakeNotificationSentKey(reservationID uint) string {
	return fmt.Sprintf(NotificationSentKey, reservationID)
}

func MakeAddressKey(cep string) string {
	return fmt.Sprintf(AddressKey, cep)
}

// errors
var (
	ErrCacheMiss = errors.New("cache miss")
)
