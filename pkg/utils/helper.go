package utils

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math/big"
	mrand "math/rand"
	"reflect"
	"strconv"
	"time"

	"github.com/google/go-querystring/query"
)

// RandomInt returns a uniformly distributed integer in [min, max].
func RandomInt(min, max int) int {
	if max < min {
		min, max = max, min
	}
	if min == max {
		return min
	}
	val, err := rand.Int(rand.Reader, big.NewInt(int64(max-min+1)))
	if err != nil {
		return min
	}
	return min + int(val.Int64())
}

func RandomSeconds(min, max int) time.Duration {
	if min < 0 {
		min = 0
	}
	if max < 0 {
		max = 0
	}
	return time.Duration(RandomInt(min, max)) * time.Second
}

func RandomFloat(min, max float64) float64 {
	if max < min {
		min, max = max, min
	}
	return min + mrand.Float64()*(max-min)
}

// RandomAmount draws a value uniformly from [min, max], rounds it to a random
// number of decimal places in [minDecimals, maxDecimals] and returns both the
// rounded decimal string and its value scaled by 10^decimals.
func RandomAmount(min, max float64, minDecimals, maxDecimals, decimals int) (string, *big.Int, error) {
	if min < 0 || max < 0 {
		return "", nil, fmt.Errorf("amount bounds must be positive")
	}
	places := RandomInt(minDecimals, maxDecimals)
	if places > decimals {
		places = decimals
	}
	amount := strconv.FormatFloat(RandomFloat(min, max), 'f', places, 64)
	wei, err := ParseUnits(amount, decimals)
	if err != nil {
		return "", nil, fmt.Errorf("failed to parse amount %s: %w", amount, err)
	}
	return amount, wei, nil
}

func FormatObject(obj interface{}) (string, error) {
	loggableMap := make(map[string]interface{})

	v := reflect.ValueOf(obj)

	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		jsonOutput, err := json.MarshalIndent(obj, "", "  ")
		if err != nil {
			return "", err
		}
		return string(jsonOutput), nil
	}

	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		if field.Kind() == reflect.Func {
			loggableMap[fieldType.Name] = "<function>"
			continue
		}

		if field.CanInterface() {
			loggableMap[fieldType.Name] = field.Interface()
		}
	}

	jsonOutput, err := json.MarshalIndent(loggableMap, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonOutput), nil
}

func EncodeURLParams(params interface{}) (string, error) {
	v, err := query.Values(params)
	if err != nil {
		return "", fmt.Errorf("failed to encode url param: %w", err)
	}
	return v.Encode(), nil
}

func BeautifyJSON(data []byte) string {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return string(data)
	}
	pretty, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return string(data)
	}
	return string(pretty)
}
