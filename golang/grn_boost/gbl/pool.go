package gbl

import "sync"

//Task is a unit of work executed by a Pool.
type Task interface {
	Execute()
}

//Pool runs tasks on a fixed number of goroutines.
type Pool struct {
	tasks chan Task
	wg    sync.WaitGroup
}

//NewPool starts threadsNum workers. Values below one are treated as one.
func NewPool(threadsNum int) *Pool {
	if threadsNum < 1 {
		threadsNum = 1
	}
	pool := &Pool{tasks: make(chan Task, threadsNum)}
	pool.wg.Add(threadsNum)
	for ind := 0; ind < threadsNum; ind++ {
		go pool.work()
	}
	return pool
}

func (pool *Pool) work() {
	defer pool.wg.Done()
	for task := range pool.tasks {
		task.Execute()
	}
}

//AddTask schedules a task. It blocks while all workers are busy and the queue is full.
func (pool *Pool) AddTask(task Task) {
	pool.tasks <- task
}

//Close tells the workers that no more tasks will come.
func (pool *Pool) Close() {
	close(pool.tasks)
}

//WaitAll waits until every scheduled task is finished. Close must be called first.
func (pool *Pool) WaitAll() {
	pool.wg.Wait()
}

//TaskFindBestSplit scans one feature for the best splits of all open nodes.
type TaskFindBestSplit struct {
	result        [][]BestSplit
	q             int
	bestSplitFunc func(int) []BestSplit
}

//Execute stores the splits of the feature q.
func (task *TaskFindBestSplit) Execute() {
	task.result[task.q] = task.bestSplitFunc(task.q)
}

//TaskFunc adapts a plain function to the Task interface.
type TaskFunc func()

//Execute calls f.
func (f TaskFunc) Execute() {
	f()
}
