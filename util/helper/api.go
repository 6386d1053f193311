package helper_util

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

func GetPaginationParams(c *gin.Context) (limit int, offset int, err error) {
	limit, err = strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil {
		return 0, 0, err
	}
	offset, err = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil {
		return 0, 0, err
	}
	return limit, offset, nil
}

// GetTimeRangeParams reads optional from/to RFC3339 query parameters,
// defaulting to the last 24 hours.
func GetTimeRangeParams(c *gin.Context) (from, to time.Time, err error) {
	to = time.Now()
	from = to.Add(-24 * time.Hour)
	if s := c.Query("from"); s != "" {
		if from, err = ParseTime(s); err != nil {
			return
		}
	}
	if s := c.Query("to"); s != "" {
		if to, err = ParseTime(s); err != nil {
			return
		}
	}
	return
}
