package utils

import (
	"log"
	"time"
)

// Scheduling decisions run on Korea Standard Time, the clock the brokerage
// reports overseas market hours in.
func GetKSTLocation() *time.Location {
	loc, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		log.Fatal("Failed to load location", err)
	}
	return loc
}

func TimeNowKST() time.Time {
	return time.Now().In(GetKSTLocation())
}
